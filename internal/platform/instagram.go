package platform

type Instagram struct{}

func init() {
	Register(&Instagram{})
}

func (p *Instagram) GetName() string {
	return "instagram-reel"
}

func (p *Instagram) GetCanvasSize() (width, height int) {
	return 1080, 1920
}

func (p *Instagram) GetMaxDuration() int {
	return 90
}

func (p *Instagram) GetVideoCodec() string {
	return "libx264" // H.264 for better compatibility
}

func (p *Instagram) GetFrameRate() int {
	return 30
}

func (p *Instagram) GetAudioBitrate() string {
	return "128k"
}
