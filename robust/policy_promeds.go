package robust

// promedsPolicy reuses LMedS's scoring, inlier test and stop criterion
// (spec §4.6, PROMedS): only the sampling order differs from plain LMedS.
type promedsPolicy struct {
	lmedsPolicy
}

func (promedsPolicy) Method() Method             { return PROMedS }
func (promedsPolicy) RequiresQualityScores() bool { return true }
