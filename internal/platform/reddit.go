package platform

type Reddit struct{}

func init() {
	Register(&Reddit{})
}

func (p *Reddit) GetName() string {
	return "reddit"
}

func (p *Reddit) GetCanvasSize() (width, height int) {
	return 1920, 1080
}

func (p *Reddit) GetMaxDuration() int {
	return 300 // 5 minutes
}

func (p *Reddit) GetVideoCodec() string {
	return "libx264"
}

func (p *Reddit) GetFrameRate() int {
	return 30
}

func (p *Reddit) GetAudioBitrate() string {
	return "192k"
}
