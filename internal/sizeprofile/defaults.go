package sizeprofile

// DefaultShapes returns the shapes a profile is seeded with.
//
// They match the mean of the typical genuine upload: the number of keys
// is uniform in 1..14, the number of summaries (one per detection run)
// is uniform in 0..14 and each summary carries one exposure info half of
// the time. Summaries take even counts so that half of them carry infos
// exactly. Rows alternate odd and even key counts so that their mean and
// variance are the ones of 1..14.
func DefaultShapes() []Shape {
	var out []Shape
	for row, summaries := 0, 0; summaries <= 14; row, summaries = row+1, summaries+2 {
		for keys := 1 + row%2; keys <= 14; keys += 2 {
			out = append(out, Shape{
				Keys:          keys,
				Summaries:     summaries,
				ExposureInfos: summaries / 2,
			})
		}
	}
	return out
}
