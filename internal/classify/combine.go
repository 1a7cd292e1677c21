package classify

// reviewThreshold is the confidence floor below which a classification is
// flagged for human review.
const reviewThreshold = 0.45

// Classification method names persisted on the record.
const (
	MethodMultiSignal    = "multi_signal"
	MethodTagsFallback   = "tags_fallback"
	MethodUnclassifiable = "unclassifiable"
)

// Outcome is the final classification decision for a record.
type Outcome struct {
	AreaID      *int64  `json:"area_id"`
	TopicIDs    []int64 `json:"topic_ids"`
	Confidence  float64 `json:"confidence"`
	NeedsReview bool    `json:"needs_review"`
	Method      string  `json:"method"`
}

// Unclassifiable is the terminal outcome when no signal fired at all.
// It is a valid per-record result, not an error.
func Unclassifiable() Outcome {
	return Outcome{
		Confidence:  0,
		NeedsReview: true,
		Method:      MethodUnclassifiable,
	}
}

// Combine folds the fired signals into a single weighted decision.
// Weights are redistributed over the present signal sources so they sum
// to 1.0, each signal's confidence is routed to its chosen area, the area
// with the highest accumulated score wins, and the final confidence is the
// winning score over the weight actually used, clamped to [0,1].
// Parameters:
//   - signals: the signals that fired; nil entries are not allowed.
// Returns:
//   - Outcome: winning area with confidence and review flag, or the
//     unclassifiable outcome when signals is empty.
func Combine(signals []Signal) Outcome {
	if len(signals) == 0 {
		return Unclassifiable()
	}

	present := make([]SignalSource, 0, len(signals))
	for _, s := range signals {
		present = append(present, s.Source)
	}
	weights := adjustedWeights(present)

	areaScores := make(map[int64]float64)
	var weightUsed float64
	for _, s := range signals {
		w := weights[s.Source]
		areaScores[s.AreaID] += w * s.Confidence
		weightUsed += w
	}

	var bestArea int64
	bestScore := -1.0
	for areaID, score := range areaScores {
		if score > bestScore || (score == bestScore && areaID < bestArea) {
			bestArea = areaID
			bestScore = score
		}
	}

	confidence := bestScore
	if weightUsed > 0 {
		confidence = bestScore / weightUsed
	}
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	// Topic suggestions only make sense if they came from a signal that
	// voted for the winning area.
	var topicIDs []int64
	for _, s := range signals {
		if s.AreaID == bestArea && len(s.TopicIDs) > 0 {
			topicIDs = s.TopicIDs
			break
		}
	}

	area := bestArea
	return Outcome{
		AreaID:      &area,
		TopicIDs:    topicIDs,
		Confidence:  confidence,
		NeedsReview: confidence < reviewThreshold,
		Method:      MethodMultiSignal,
	}
}

// TagsFallback builds the degraded outcome used when the language-model
// signal failed but tag/author signals exist: their combined decision
// survives with discounted confidence and a forced review flag.
func TagsFallback(signals []Signal) Outcome {
	o := Combine(signals)
	if o.AreaID == nil {
		return Unclassifiable()
	}
	o.Confidence *= 0.8
	o.NeedsReview = true
	o.Method = MethodTagsFallback
	o.TopicIDs = nil
	return o
}
