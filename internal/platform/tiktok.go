package platform

type TikTok struct{}

func init() {
	Register(&TikTok{})
}

func (p *TikTok) GetName() string {
	return "tiktok"
}

func (p *TikTok) GetCanvasSize() (width, height int) {
	return 1080, 1920
}

func (p *TikTok) GetMaxDuration() int {
	return 180
}

func (p *TikTok) GetVideoCodec() string {
	return "libx264" // H.264 for better compatibility
}

func (p *TikTok) GetFrameRate() int {
	return 30
}

func (p *TikTok) GetAudioBitrate() string {
	return "128k"
}
