package ingestion

//
// Dummy upload bodies
//

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"time"

	"github.com/immuni/upload-client/internal/clockx"
	"github.com/immuni/upload-client/internal/model"
	"github.com/immuni/upload-client/internal/province"
	"github.com/immuni/upload-client/internal/runtimex"
	"github.com/immuni/upload-client/internal/sizeprofile"
)

// ErrNoProvinces indicates that the province catalog is empty. Without
// provinces we cannot produce any valid upload, genuine or dummy, so
// this is a fatal configuration error.
var ErrNoProvinces = errors.New("ingestion: no provinces defined")

// DefaultSizeTolerance is the maximum relative difference between the
// mean serialized size of dummy and genuine bodies.
const DefaultSizeTolerance = 0.05

// DummyConfig contains config for [NewDummyGenerator].
type DummyConfig struct {
	// Catalog is the MANDATORY province catalog.
	Catalog province.Catalog

	// Clock is the OPTIONAL clock used to date synthetic keys and
	// summaries. We use [clockx.System] when not set.
	Clock clockx.Source

	// Profile is the OPTIONAL size profile. When not set we use a
	// profile seeded with [sizeprofile.DefaultShapes].
	Profile *sizeprofile.Profile

	// Rand is the OPTIONAL source of randomness. We use crypto/rand
	// when not set.
	Rand io.Reader
}

// DummyGenerator generates dummy upload bodies. It's safe to use
// from multiple goroutines.
type DummyGenerator struct {
	catalog province.Catalog
	clock   clockx.Source
	profile *sizeprofile.Profile
	rand    io.Reader
}

// NewDummyGenerator creates a new [DummyGenerator]. It returns
// [ErrNoProvinces] if the catalog is nil or empty.
func NewDummyGenerator(config *DummyConfig) (*DummyGenerator, error) {
	if config.Catalog == nil || len(config.Catalog.Codes()) <= 0 {
		return nil, ErrNoProvinces
	}
	profile := config.Profile
	if profile == nil {
		profile = sizeprofile.MustNew(sizeprofile.DefaultCapacity, sizeprofile.DefaultShapes())
	}
	r := config.Rand
	if r == nil {
		r = rand.Reader
	}
	g := &DummyGenerator{
		catalog: config.Catalog,
		clock:   clockx.OrSystem(config.Clock),
		profile: profile,
		rand:    r,
	}
	return g, nil
}

// MustNewDummyGenerator is like [NewDummyGenerator] but panics on failure.
func MustNewDummyGenerator(config *DummyConfig) *DummyGenerator {
	g, err := NewDummyGenerator(config)
	runtimex.PanicOnError(err, "NewDummyGenerator failed")
	return g
}

// Profile returns the size profile used by the generator.
func (g *DummyGenerator) Profile() *sizeprofile.Profile {
	return g.profile
}

// Generate returns a dummy body. The province is drawn uniformly from
// the catalog and the content is synthetic filler following a shape
// sampled from the size profile.
//
// Generate panics if the catalog has become empty since construction or
// if reading randomness fails.
func (g *DummyGenerator) Generate() *Body {
	code, err := province.Random(g.catalog, g.rand)
	if errors.Is(err, province.ErrEmptyCatalog) {
		err = ErrNoProvinces
	}
	runtimex.PanicOnError(err, "cannot select a random province")
	shape, err := g.profile.Sample(g.rand)
	runtimex.PanicOnError(err, "cannot sample the size profile")
	now := g.clock().UTC()
	return &Body{
		Teks:                       g.syntheticKeys(now, shape.Keys),
		Province:                   code,
		ExposureDetectionSummaries: g.syntheticSummaries(now, shape.Summaries, shape.ExposureInfos),
	}
}

// intervalNumber returns the 10-minute interval number of t.
func intervalNumber(t time.Time) uint32 {
	return uint32(t.Unix() / 600)
}

// syntheticKeys returns count keys, one per day, oldest first, the
// newest starting today.
func (g *DummyGenerator) syntheticKeys(now time.Time, count int) []model.TemporaryExposureKey {
	today := intervalNumber(now) / model.TEKRollingPeriod * model.TEKRollingPeriod
	out := []model.TemporaryExposureKey{}
	for i := count - 1; i >= 0; i-- {
		keyData := make([]byte, model.TEKKeyLength)
		runtimex.Try1(io.ReadFull(g.rand, keyData))
		out = append(out, model.TemporaryExposureKey{
			KeyData:            keyData,
			RollingStartNumber: today - uint32(i)*model.TEKRollingPeriod,
			RollingPeriod:      model.TEKRollingPeriod,
		})
	}
	return out
}

// syntheticSummaries returns count summaries, newest first, sharing
// infos exposure infos in round robin.
func (g *DummyGenerator) syntheticSummaries(now time.Time, count, infos int) []model.ExposureDetectionSummary {
	out := []model.ExposureDetectionSummary{}
	for j := 0; j < count; j++ {
		ninfos := infos / count
		if j < infos%count {
			ninfos++
		}
		date := now.AddDate(0, 0, -j)
		summary := model.ExposureDetectionSummary{
			Date:                  date.Format(model.SummaryDateFormat),
			MatchedKeyCount:       ninfos,
			DaysSinceLastExposure: g.intn(15),
			AttenuationDurations:  g.attenuationDurations(),
			MaximumRiskScore:      0,
			ExposureInfo:          []model.ExposureInfo{},
		}
		for k := 0; k < ninfos; k++ {
			info := model.ExposureInfo{
				Date:                  date.AddDate(0, 0, -g.intn(14)).Format(model.SummaryDateFormat),
				Duration:              5 * (1 + g.intn(6)),
				AttenuationValue:      g.intn(101),
				AttenuationDurations:  g.attenuationDurations(),
				TransmissionRiskLevel: 1 + g.intn(8),
				TotalRiskScore:        g.intn(201),
			}
			summary.ExposureInfo = append(summary.ExposureInfo, info)
			summary.MaximumRiskScore = max(summary.MaximumRiskScore, info.TotalRiskScore)
		}
		out = append(out, summary)
	}
	return out
}

// attenuationDurations returns realistic attenuation durations in seconds.
func (g *DummyGenerator) attenuationDurations() []int {
	out := make([]int, model.AttenuationBuckets)
	for i := range out {
		out[i] = 60 * g.intn(31)
	}
	return out
}

// intn returns a uniform random integer in [0, n).
func (g *DummyGenerator) intn(n int) int {
	v := runtimex.Try1(rand.Int(g.rand, big.NewInt(int64(n))))
	return int(v.Int64())
}
