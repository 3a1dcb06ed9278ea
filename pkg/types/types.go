package types

type Stage string

const (
	StageAnnotate   Stage = "annotate"
	StageEncode     Stage = "encode"
	StageSynthesize Stage = "synthesize"
	StageMix        Stage = "mix"
	StageMux        Stage = "mux"
	StageSubtitles  Stage = "subtitles"
	StagePublish    Stage = "publish"
)

// State is a node of the pipeline state machine.
type State string

const (
	StateStart           State = "start"
	StateImageAnnotated  State = "image_annotated"
	StateVideoEncoded    State = "video_encoded"
	StateNarrationReady  State = "narration_ready"
	StateAudioMixed      State = "audio_mixed"
	StateVideoMuxed      State = "video_muxed"
	StateSubtitlesBurned State = "subtitles_burned"
	StateFailed          State = "failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateSubtitlesBurned || s == StateFailed
}
