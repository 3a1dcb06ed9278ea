package platform

import "github.com/ZacxDev/video-narrator/internal/config"

type Default struct{}

func init() {
	Register(&Default{})
}

func (p *Default) GetName() string {
	return "default"
}

func (p *Default) GetCanvasSize() (width, height int) {
	return config.DefaultWidth, config.DefaultHeight
}

func (p *Default) GetMaxDuration() int {
	return 0 // unlimited
}

func (p *Default) GetVideoCodec() string {
	return config.DefaultVideoCodec
}

func (p *Default) GetFrameRate() int {
	return config.DefaultFPS
}

func (p *Default) GetAudioBitrate() string {
	return config.DefaultAudioBitrate
}
