package classify

// SignalSource identifies which evidence channel produced a signal.
type SignalSource string

const (
	SourceTranscript  SignalSource = "transcript"
	SourceTags        SignalSource = "tags"
	SourceDescription SignalSource = "description"
	SourceAuthor      SignalSource = "author"
)

// baseWeights are the relative strengths of each evidence channel.
// Transcript-derived evidence dominates; author history is a weak prior.
var baseWeights = map[SignalSource]float64{
	SourceTranscript:  0.50,
	SourceTags:        0.30,
	SourceDescription: 0.15,
	SourceAuthor:      0.05,
}

// Signal is one normalized piece of classification evidence. Every raw
// signal (tag votes, author histogram, language-model output) is reduced
// to this shape before combination.
type Signal struct {
	Source     SignalSource
	AreaID     int64
	Confidence float64

	// MatchedCount is the number of tags that voted, set only for tag signals.
	MatchedCount int

	// TopicIDs are model-suggested topics, set only for transcript and
	// description signals.
	TopicIDs []int64
}

// adjustedWeights redistributes the base weights across the signals that
// actually fired, so the weights of present signals always sum to 1.0.
func adjustedWeights(present []SignalSource) map[SignalSource]float64 {
	var total float64
	for _, s := range present {
		total += baseWeights[s]
	}
	if total == 0 {
		return nil
	}

	adjusted := make(map[SignalSource]float64, len(present))
	for _, s := range present {
		adjusted[s] = baseWeights[s] / total
	}
	return adjusted
}

// AuthorSignal derives a weak classification prior from an author's
// history of already-classified videos. The most frequent area wins with
// a fixed moderate confidence.
// Parameters:
//   - history: area ID to classified-video count for the author.
// Returns:
//   - *Signal: author signal, or nil when the history is empty.
func AuthorSignal(history map[int64]int) *Signal {
	if len(history) == 0 {
		return nil
	}

	var bestArea int64
	bestCount := -1
	for areaID, count := range history {
		if count > bestCount || (count == bestCount && areaID < bestArea) {
			bestArea = areaID
			bestCount = count
		}
	}

	return &Signal{
		Source:     SourceAuthor,
		AreaID:     bestArea,
		Confidence: 0.6,
	}
}
