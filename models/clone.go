package models

// Clone returns a deep copy of the scoring config. Snapshots must not share
// pointers with the catalog row they were taken from.
func (c ScoringConfig) Clone() ScoringConfig {
	out := c
	if c.Cap != nil {
		v := *c.Cap
		out.Cap = &v
	}
	if c.TieBreakAt != nil {
		v := *c.TieBreakAt
		out.TieBreakAt = &v
	}
	return out
}

// Clone returns a deep copy of the format definition with the raw JSON
// dropped; the snapshot carries the decoded stages only.
func (f FormatDefinition) Clone() FormatDefinition {
	out := f
	out.StagesJSON = nil
	out.Stages = make([]FormatStage, len(f.Stages))
	copy(out.Stages, f.Stages)
	return out
}
