package export

import (
	"encoding/json"
	"io"

	"remotejobs-engine/internal/domain"
)

func writeJSON(w io.Writer, jobs []domain.JobRecord) error {
	if jobs == nil {
		jobs = []domain.JobRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jobs)
}
