package models

import (
	"encoding/json"
	"fmt"
)

// Per-stage input/output payload schemas. A worker claiming a job
// decodes InputData against the schema for job.Type; an unrecognized
// Type, or input that fails to decode, is a schema-mismatch failure
// recorded against the job rather than a panic.

// TranscriptionInput is the ASR stage's input payload.
type TranscriptionInput struct {
	EpisodeID string `json:"episodeId"`
	S3Key     string `json:"s3Key"`
}

// TranscriptionOutput is the ASR stage's output payload.
type TranscriptionOutput struct {
	TranscriptKey string  `json:"transcriptKey"`
	Language      string  `json:"language"`
	Duration      float64 `json:"duration"`
	SegmentCount  int     `json:"segmentCount"`
	WordCount     int     `json:"wordCount"`
}

// DiarizationInput is the diarization stage's input payload.
type DiarizationInput struct {
	EpisodeID string `json:"episodeId"`
	S3Key     string `json:"s3Key"`
}

// DiarizationOutput is the diarization stage's output payload.
type DiarizationOutput struct {
	RTTMKey        string  `json:"rttmKey"`
	SegmentCount   int     `json:"segmentCount"`
	SpeakerCount   int     `json:"speakerCount"`
	TotalDuration  float64 `json:"totalDuration"`
	EmbeddingCount int     `json:"embeddingCount"`
}

// TTSSynthesisInput is the TTS synthesis stage's input payload.
type TTSSynthesisInput struct {
	SynthesisRequestID string          `json:"synthesisRequestId"`
	SpeakerID          string          `json:"speakerId,omitempty"`
	VoiceModelID       string          `json:"voiceModelId,omitempty"`
	InputText          string          `json:"inputText"`
	Parameters         map[string]any  `json:"parameters,omitempty"`
}

// TTSSynthesisOutput is the TTS synthesis stage's output payload.
type TTSSynthesisOutput struct {
	OutputKey    string  `json:"outputKey"`
	Duration     float64 `json:"duration"`
	SampleRate   int     `json:"sampleRate"`
	QualityScore float64 `json:"qualityScore"`
}

// TTSTrainingInput is the TTS training stage's input payload.
type TTSTrainingInput struct {
	VoiceModelID   string         `json:"voiceModelId"`
	SpeakerID      string         `json:"speakerId"`
	TrainingConfig map[string]any `json:"trainingConfig"`
}

// TTSTrainingOutput is the TTS training stage's output payload.
type TTSTrainingOutput struct {
	ModelKey         string  `json:"modelKey"`
	ConfigKey        string  `json:"configKey"`
	TrainingDuration float64 `json:"trainingDuration"`
	QualityScore     float64 `json:"qualityScore"`
}

// KnownJobType reports whether jobType names a stage this repo understands.
// EMBEDDING_EXTRACTION and SPEAKER_CLUSTERING accept the same payload shape
// as DIARIZATION (they consume its embedding/segment output) and so share
// no separate schema of their own.
func KnownJobType(jobType string) bool {
	switch jobType {
	case JobTypeTranscription, JobTypeDiarization, JobTypeEmbeddingExtraction,
		JobTypeSpeakerClustering, JobTypeTTSSynthesis, JobTypeTTSTraining:
		return true
	default:
		return false
	}
}

// DecodeInput decodes a job's InputData against the schema registered for
// its Type, returning the decoded value as the concrete stage Input
// struct. An unrecognized Type or input that fails to decode is returned
// as an error, so a worker can fail the job at claim time instead of
// handing malformed input to its adapter.
func DecodeInput(jobType string, data []byte) (any, error) {
	switch jobType {
	case JobTypeTranscription:
		var in TranscriptionInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("models: decode %s input: %w", jobType, err)
		}
		return in, nil
	case JobTypeDiarization, JobTypeEmbeddingExtraction, JobTypeSpeakerClustering:
		var in DiarizationInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("models: decode %s input: %w", jobType, err)
		}
		return in, nil
	case JobTypeTTSSynthesis:
		var in TTSSynthesisInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("models: decode %s input: %w", jobType, err)
		}
		return in, nil
	case JobTypeTTSTraining:
		var in TTSTrainingInput
		if err := json.Unmarshal(data, &in); err != nil {
			return nil, fmt.Errorf("models: decode %s input: %w", jobType, err)
		}
		return in, nil
	default:
		return nil, fmt.Errorf("models: unknown job type %q", jobType)
	}
}

// InputBlobKey returns the blob-store key a decoded stage input
// references for its raw source material, or "" if the stage has no
// blob input (e.g. TTS stages, which take text/config only).
func InputBlobKey(decoded any) string {
	switch in := decoded.(type) {
	case TranscriptionInput:
		return in.S3Key
	case DiarizationInput:
		return in.S3Key
	default:
		return ""
	}
}

// OutputBlobKey derives the blob-store key under which a completed job's
// raw result bytes belong, following each stage's key-namespace
// convention. Returns an error for stage inputs with no such convention
// defined yet.
func OutputBlobKey(jobID string, decoded any) (string, error) {
	switch in := decoded.(type) {
	case TranscriptionInput:
		return fmt.Sprintf("transcripts/%s/whisperx.json", in.EpisodeID), nil
	case DiarizationInput:
		return fmt.Sprintf("diarization/%s/segments.rttm", in.EpisodeID), nil
	case TTSSynthesisInput:
		speaker := in.SpeakerID
		if speaker == "" {
			speaker = "unknown"
		}
		return fmt.Sprintf("synth/%s/%s/output.wav", speaker, in.SynthesisRequestID), nil
	case TTSTrainingInput:
		return fmt.Sprintf("voices/%s/xtts-v2/%s/model.pth", in.SpeakerID, jobID), nil
	default:
		return "", fmt.Errorf("models: no blob key convention for input type %T", decoded)
	}
}

// StageResultEnvelope is the durable shape of a completed job's
// outputData: the producing stage's type plus either a reference to
// where its full result was written in blob storage, or the raw result
// inline when no blob store is configured or the stage has no output
// blob key convention.
type StageResultEnvelope struct {
	JobType   string          `json:"jobType"`
	ResultKey string          `json:"resultKey,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
}
