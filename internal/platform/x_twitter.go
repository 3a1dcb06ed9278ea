package platform

type Twitter struct{}

func init() {
	Register(&Twitter{})
}

func (p *Twitter) GetName() string {
	return "x-twitter"
}

func (p *Twitter) GetCanvasSize() (width, height int) {
	return 1280, 720
}

func (p *Twitter) GetMaxDuration() int {
	return 140
}

func (p *Twitter) GetVideoCodec() string {
	return "libx264"
}

func (p *Twitter) GetFrameRate() int {
	return 30
}

func (p *Twitter) GetAudioBitrate() string {
	return "128k"
}
