package classify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/llm"
	"github.com/nahuelp/clipstack/internal/logger"
	"github.com/nahuelp/clipstack/internal/prompts"
)

// Excerpt caps bound prompt size for the language-model signal.
const (
	transcriptExcerpt  = 600
	descriptionExcerpt = 400
	minDescriptionLen  = 50
	maxPromptTags      = 12
	maxTopics          = 3
)

// Input carries the evidence available for classifying one record.
type Input struct {
	Title         string
	Author        string
	Description   string
	Tags          []string
	Transcript    string
	AuthorHistory map[int64]int // area ID -> classified-video count
}

// Classifier combines tag, author, and language-model signals into a
// single area/topic decision per record.
type Classifier struct {
	gen      llm.Generator
	areas    []domain.Area
	topics   []domain.Topic
	mappings map[string]int64
}

// NewClassifier creates a Classifier over a fixed taxonomy snapshot.
// Parameters:
//   - gen: language-generation collaborator.
//   - areas: all candidate areas.
//   - topics: all topics, each scoped to an area.
// Returns:
//   - *Classifier: classifier using the default tag table.
func NewClassifier(gen llm.Generator, areas []domain.Area, topics []domain.Topic) *Classifier {
	return &Classifier{
		gen:    gen,
		areas:  areas,
		topics: topics,
	}
}

// SetTagMappings overrides the built-in tag to area table.
func (c *Classifier) SetTagMappings(m map[string]int64) {
	c.mappings = m
}

// Classify decides the area and topics for one record.
// Tag and author signals are computed locally; if a transcript or a
// sufficiently long description exists, a language-model signal is added.
// A failed or unparsable model call degrades to the tag/author decision
// with discounted confidence; no signals at all yields the unclassifiable
// outcome. Classify never returns an error for degraded evidence, only
// for context cancellation.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - in: record evidence.
// Returns:
//   - Outcome: final decision including confidence and review flag.
//   - error: non-nil only if the context was cancelled.
func (c *Classifier) Classify(ctx context.Context, in Input) (Outcome, error) {
	var signals []Signal
	if tag := TagSignal(in.Tags, c.mappings); tag != nil {
		signals = append(signals, *tag)
	}
	if author := AuthorSignal(in.AuthorHistory); author != nil {
		signals = append(signals, *author)
	}

	hasTranscript := strings.TrimSpace(in.Transcript) != ""
	hasDescription := len(strings.TrimSpace(in.Description)) > minDescriptionLen
	if !hasTranscript && !hasDescription {
		// The model signal is skipped entirely rather than invoked with
		// empty context.
		return Combine(signals), nil
	}

	raw, err := c.gen.Generate(ctx, c.buildPrompt(in, hasTranscript), llm.Options{
		Temperature: 0.1,
		NumPredict:  80,
	})
	if err != nil {
		if ctx.Err() != nil {
			return Outcome{}, ctx.Err()
		}
		logger.CtxWarn(ctx, "classification model call failed, degrading to tag/author signals: %v", err)
		return TagsFallback(signals), nil
	}

	resp, score, err := parseModelResponse(raw)
	if err != nil || !c.validArea(resp.AreaID) {
		logger.CtxWarn(ctx, "unusable classification response (%v), degrading to tag/author signals", err)
		return TagsFallback(signals), nil
	}

	source := SourceDescription
	if hasTranscript {
		source = SourceTranscript
	}
	signals = append(signals, Signal{
		Source:     source,
		AreaID:     resp.AreaID,
		Confidence: score,
		TopicIDs:   c.filterTopics(resp.AreaID, resp.TopicIDs),
	})

	return Combine(signals), nil
}

// validArea reports whether the model returned a known area ID.
func (c *Classifier) validArea(areaID int64) bool {
	for _, a := range c.areas {
		if a.ID == areaID {
			return true
		}
	}
	return false
}

// filterTopics keeps only topic IDs that belong to the chosen area,
// capped to maxTopics. Topics are always a subset of their declared
// area's topic set.
func (c *Classifier) filterTopics(areaID int64, topicIDs []int64) []int64 {
	valid := make(map[int64]bool)
	for _, t := range c.topics {
		if t.AreaID == areaID {
			valid[t.ID] = true
		}
	}

	var kept []int64
	for _, id := range topicIDs {
		if valid[id] {
			kept = append(kept, id)
		}
		if len(kept) == maxTopics {
			break
		}
	}
	return kept
}

// buildPrompt assembles the Spanish classification prompt: area list,
// per-area topic lists with inline IDs, author-history context, tag
// context, and the transcript or description excerpt.
func (c *Classifier) buildPrompt(in Input, hasTranscript bool) string {
	var b strings.Builder
	b.WriteString(prompts.ClassificationPromptHeader)

	for _, a := range c.areas {
		fmt.Fprintf(&b, "%d. %s\n", a.ID, a.Name)
	}

	b.WriteString("\nTEMAS (usa los ids entre paréntesis):\n")
	for _, a := range c.areas {
		var items []string
		for _, t := range c.topics {
			if t.AreaID == a.ID {
				items = append(items, fmt.Sprintf("%s(id:%d)", t.Name, t.ID))
			}
		}
		if len(items) > 0 {
			fmt.Fprintf(&b, "  Área %d (%s): %s\n", a.ID, a.Name, strings.Join(items, ", "))
		}
	}

	if ctxLine := c.authorContext(in); ctxLine != "" {
		b.WriteString(ctxLine)
	}

	b.WriteString("\nVIDEO:\n")
	fmt.Fprintf(&b, "Título: %s\n", in.Title)
	fmt.Fprintf(&b, "Autor: %s\n", in.Author)

	if len(in.Tags) > 0 {
		tags := in.Tags
		if len(tags) > maxPromptTags {
			tags = tags[:maxPromptTags]
		}
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(tags, ", "))
	}

	if hasTranscript {
		fmt.Fprintf(&b, "Transcripción: %s\n", truncate(in.Transcript, transcriptExcerpt))
	} else {
		fmt.Fprintf(&b, "Descripción: %s\n", truncate(in.Description, descriptionExcerpt))
	}

	b.WriteString(prompts.ClassificationPromptFooter)
	return b.String()
}

// authorContext summarizes the author's top areas as a prompt hint.
func (c *Classifier) authorContext(in Input) string {
	if len(in.AuthorHistory) == 0 {
		return ""
	}

	names := make(map[int64]string, len(c.areas))
	for _, a := range c.areas {
		names[a.ID] = a.Name
	}

	type areaCount struct {
		areaID int64
		count  int
	}
	counts := make([]areaCount, 0, len(in.AuthorHistory))
	for areaID, n := range in.AuthorHistory {
		counts = append(counts, areaCount{areaID, n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].count != counts[j].count {
			return counts[i].count > counts[j].count
		}
		return counts[i].areaID < counts[j].areaID
	})
	if len(counts) > 3 {
		counts = counts[:3]
	}

	var parts []string
	for _, ac := range counts {
		name := names[ac.areaID]
		if name == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%d videos)", name, ac.count))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf("\nContexto del autor @%s: publica sobre %s\n", in.Author, strings.Join(parts, ", "))
}

// truncate cuts s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
