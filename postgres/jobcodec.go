package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/gosom/scrapemate"

	"github.com/tpgainz/sirene-search/jobs"
)

const (
	jobTypeImport = "import"
	jobTypeEnrich = "enrich"
)

// JobCodec handles encoding and decoding of a specific job type.
type JobCodec interface {
	// JobType returns the type identifier for this codec.
	JobType() string
	// Encode converts a job to a JSONJob.
	Encode(job scrapemate.IJob) (*JSONJob, error)
	// Decode converts a JSONJob back to a job.
	Decode(jsonJob *JSONJob) (scrapemate.IJob, error)
}

// CodecRegistry manages job codecs by type.
type CodecRegistry struct {
	codecs map[string]JobCodec
}

// NewCodecRegistry creates a new registry with all supported codecs.
func NewCodecRegistry() *CodecRegistry {
	r := &CodecRegistry{
		codecs: make(map[string]JobCodec),
	}
	r.Register(&ImportJobCodec{})
	r.Register(&EnrichJobCodec{})

	return r
}

// Register adds a codec to the registry.
func (r *CodecRegistry) Register(codec JobCodec) {
	r.codecs[codec.JobType()] = codec
}

// GetCodec returns the codec for the given job type.
func (r *CodecRegistry) GetCodec(jobType string) (JobCodec, bool) {
	codec, ok := r.codecs[jobType]
	return codec, ok
}

// EncodeJob encodes a job using the appropriate codec.
func (r *CodecRegistry) EncodeJob(job scrapemate.IJob) (*JSONJob, string, error) {
	// Unwrap if wrapped
	actualJob := job
	if wrapper, ok := job.(*jobWrapper); ok {
		actualJob = wrapper.IJob
	}

	var jobType string
	switch actualJob.(type) {
	case *jobs.ImportJob:
		jobType = jobTypeImport
	case *jobs.EnrichJob:
		jobType = jobTypeEnrich
	default:
		return nil, "", fmt.Errorf("type de job non supporté: %T", actualJob)
	}

	codec, ok := r.GetCodec(jobType)
	if !ok {
		return nil, "", fmt.Errorf("aucun codec pour le type: %s", jobType)
	}

	jsonJob, err := codec.Encode(actualJob)
	if err != nil {
		return nil, "", err
	}

	return jsonJob, jobType, nil
}

// DecodeJob decodes a job using the appropriate codec.
func (r *CodecRegistry) DecodeJob(payloadType string, payload []byte) (scrapemate.IJob, error) {
	// If the payload is a string, unmarshal it first
	var rawJSON string
	if err := json.Unmarshal(payload, &rawJSON); err == nil {
		payload = []byte(rawJSON)
	}

	var jsonJob JSONJob
	if err := json.Unmarshal(payload, &jsonJob); err != nil {
		return nil, fmt.Errorf("désérialisation du job: %w", err)
	}

	codec, ok := r.GetCodec(payloadType)
	if !ok {
		return nil, fmt.Errorf("type de payload invalide: %s", payloadType)
	}

	return codec.Decode(&jsonJob)
}

// ImportJobCodec handles ImportJob encoding/decoding.
type ImportJobCodec struct{}

func (c *ImportJobCodec) JobType() string { return jobTypeImport }

func (c *ImportJobCodec) Encode(job scrapemate.IJob) (*JSONJob, error) {
	j, ok := job.(*jobs.ImportJob)
	if !ok {
		return nil, fmt.Errorf("expected *jobs.ImportJob, got %T", job)
	}

	jsonJob := &JSONJob{
		ID:         j.GetID(),
		Priority:   j.GetPriority(),
		URL:        j.GetURL(),
		URLParams:  j.GetURLParams(),
		MaxRetries: j.GetMaxRetries(),
		JobType:    jobTypeImport,
		Metadata: map[string]interface{}{
			"list_id":  j.ListID,
			"owner_id": j.OwnerID,
			"sirens":   j.Sirens,
		},
	}

	if j.ParentID != "" {
		jsonJob.ParentID = &j.ParentID
	}

	return jsonJob, nil
}

func (c *ImportJobCodec) Decode(jsonJob *JSONJob) (scrapemate.IJob, error) {
	listID, ok := jsonJob.Metadata["list_id"].(string)
	if !ok {
		return nil, fmt.Errorf("list_id is missing or not a string")
	}

	ownerID, ok := jsonJob.Metadata["owner_id"].(string)
	if !ok {
		return nil, fmt.Errorf("owner_id is missing or not a string")
	}

	rawSirens, ok := jsonJob.Metadata["sirens"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sirens is missing or not an array")
	}

	sirens := make([]string, 0, len(rawSirens))

	for _, raw := range rawSirens {
		siren, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("sirens must contain strings only")
		}

		sirens = append(sirens, siren)
	}

	var parentID string
	if jsonJob.ParentID != nil {
		parentID = *jsonJob.ParentID
	}

	return &jobs.ImportJob{
		Job: scrapemate.Job{
			ID:         jsonJob.ID,
			ParentID:   parentID,
			URL:        jsonJob.URL,
			URLParams:  jsonJob.URLParams,
			MaxRetries: jsonJob.MaxRetries,
			Priority:   jsonJob.Priority,
		},
		ListID:  listID,
		OwnerID: ownerID,
		Sirens:  sirens,
	}, nil
}

// EnrichJobCodec handles EnrichJob encoding/decoding.
type EnrichJobCodec struct{}

func (c *EnrichJobCodec) JobType() string { return jobTypeEnrich }

func (c *EnrichJobCodec) Encode(job scrapemate.IJob) (*JSONJob, error) {
	j, ok := job.(*jobs.EnrichJob)
	if !ok {
		return nil, fmt.Errorf("expected *jobs.EnrichJob, got %T", job)
	}

	jsonJob := &JSONJob{
		ID:         j.GetID(),
		Priority:   j.GetPriority(),
		URL:        j.GetURL(),
		URLParams:  j.GetURLParams(),
		MaxRetries: j.GetMaxRetries(),
		JobType:    jobTypeEnrich,
		Metadata: map[string]interface{}{
			"list_id":  j.ListID,
			"owner_id": j.OwnerID,
			"siren":    j.Siren,
		},
	}

	if j.ParentID != "" {
		jsonJob.ParentID = &j.ParentID
	}

	return jsonJob, nil
}

func (c *EnrichJobCodec) Decode(jsonJob *JSONJob) (scrapemate.IJob, error) {
	listID, ok := jsonJob.Metadata["list_id"].(string)
	if !ok {
		return nil, fmt.Errorf("list_id is missing or not a string")
	}

	ownerID, ok := jsonJob.Metadata["owner_id"].(string)
	if !ok {
		return nil, fmt.Errorf("owner_id is missing or not a string")
	}

	siren, ok := jsonJob.Metadata["siren"].(string)
	if !ok {
		return nil, fmt.Errorf("siren is missing or not a string")
	}

	var parentID string
	if jsonJob.ParentID != nil {
		parentID = *jsonJob.ParentID
	}

	return &jobs.EnrichJob{
		Job: scrapemate.Job{
			ID:         jsonJob.ID,
			ParentID:   parentID,
			URL:        jsonJob.URL,
			URLParams:  jsonJob.URLParams,
			MaxRetries: jsonJob.MaxRetries,
			Priority:   jsonJob.Priority,
		},
		ListID:  listID,
		OwnerID: ownerID,
		Siren:   siren,
	}, nil
}
