package ingestion

import (
	"encoding/json"
	"slices"

	"github.com/immuni/upload-client/internal/model"
	"github.com/immuni/upload-client/internal/runtimex"
	"github.com/immuni/upload-client/internal/sizeprofile"
)

// Body is the payload of an upload. The field order of the struct is
// the field order on the wire.
type Body struct {
	Teks                       []model.TemporaryExposureKey     `json:"teks"`
	Province                   string                           `json:"province"`
	ExposureDetectionSummaries []model.ExposureDetectionSummary `json:"exposure_detection_summaries"`
}

// NewBody creates a new [Body]. The province must belong to the
// province catalog: checking that is the caller's job. Nil slices are
// serialized as empty arrays.
func NewBody(
	teks []model.TemporaryExposureKey,
	province string,
	summaries []model.ExposureDetectionSummary,
) *Body {
	return &Body{
		Teks:                       nonNil(slices.Clone(teks)),
		Province:                   province,
		ExposureDetectionSummaries: nonNil(slices.Clone(summaries)),
	}
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// Marshal serializes the body.
func (b *Body) Marshal() []byte {
	data, err := json.Marshal(b)
	runtimex.PanicOnError(err, "json.Marshal failed for ingestion.Body")
	return data
}

// Shape returns the shape of the body including its serialized size.
func (b *Body) Shape() sizeprofile.Shape {
	var infos int
	for _, summary := range b.ExposureDetectionSummaries {
		infos += len(summary.ExposureInfo)
	}
	return sizeprofile.Shape{
		Keys:          len(b.Teks),
		Summaries:     len(b.ExposureDetectionSummaries),
		ExposureInfos: infos,
		Size:          len(b.Marshal()),
	}
}
