package export

import (
	"encoding/csv"
	"io"

	"remotejobs-engine/internal/domain"
)

var csvHeader = []string{"title", "company", "tags", "url"}

func writeCSV(w io.Writer, jobs []domain.JobRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, j := range jobs {
		if err := cw.Write(row(j)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
