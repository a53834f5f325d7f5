package robust

// prosacPolicy reuses RANSAC's scoring and inlier test (spec §4.6,
// PROSAC): the only difference from RANSAC is in how the driver samples
// subsets, which is why it requires quality scores.
type prosacPolicy struct {
	ransacPolicy
}

func (prosacPolicy) Method() Method             { return PROSAC }
func (prosacPolicy) RequiresQualityScores() bool { return true }
