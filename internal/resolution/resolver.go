package resolution

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"
	"go.uber.org/zap"

	"github.com/resto-agent/backend/internal/apperrors"
	"github.com/resto-agent/backend/internal/conversation"
)

// ReferenceType distinguishes how a span points at something.
type ReferenceType string

const (
	RefPronoun  ReferenceType = "pronoun"
	RefExplicit ReferenceType = "explicit_reference"
	RefDomain   ReferenceType = "domain_reference"
)

type Plurality string

const (
	Singular Plurality = "singular"
	Plural   Plurality = "plural"
)

var (
	singularPronouns = map[string]bool{"it": true, "this": true, "that": true, "one": true}
	pluralPronouns   = map[string]bool{"they": true, "these": true, "those": true, "ones": true}
	demonstratives   = map[string]bool{"that": true, "this": true, "those": true, "these": true}
	determiners      = map[string]bool{"that": true, "the": true, "this": true, "those": true, "these": true}

	entityNouns = map[string]conversation.EntityType{
		"item":       conversation.EntityItems,
		"items":      conversation.EntityItems,
		"category":   conversation.EntityCategories,
		"categories": conversation.EntityCategories,
		"option":     conversation.EntityOptions,
		"options":    conversation.EntityOptions,
		"order":      "orders",
		"orders":     "orders",
	}
)

// Reference is a span of query text that must be resolved against
// conversation state. Created per query, never persisted.
type Reference struct {
	Text        string                  `json:"text"`
	Start       int                     `json:"start"`
	End         int                     `json:"end"`
	Type        ReferenceType           `json:"type"`
	Plurality   Plurality               `json:"plurality"`
	EntityType  conversation.EntityType `json:"entity_type,omitempty"`
	Resolution  []conversation.Entity   `json:"resolution,omitempty"`
	IsAmbiguous bool                    `json:"is_ambiguous"`
}

// QueryReference resolves a domain reference to a previous query's filter
// set instead of a concrete entity list.
type QueryReference struct {
	QueryType string                 `json:"query_type"`
	SQL       string                 `json:"sql,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
}

// Result is what the processor consumes.
type Result struct {
	Entities              []conversation.Entity `json:"entities"`
	References            []Reference           `json:"references"`
	QueryReference        *QueryReference       `json:"query_reference,omitempty"`
	IsAmbiguous           bool                  `json:"is_ambiguous"`
	NeedsClarification    bool                  `json:"needs_clarification"`
	ClarificationQuestion string                `json:"clarification_question,omitempty"`
}

// Service resolves pronouns and definite references against a session's
// conversation context.
type Service struct {
	logger *zap.Logger
}

func NewService(logger *zap.Logger) *Service {
	return &Service{logger: logger}
}

// ResolveEntities extracts references from queryText and resolves each one.
// The first ambiguous reference determines needs_clarification; the question
// text is derived from the reference, never guessed.
func (s *Service) ResolveEntities(queryText string, convCtx *conversation.Context) (*Result, error) {
	references, err := s.extractReferences(queryText)
	if err != nil {
		return nil, apperrors.Typed(apperrors.TypeEntityResolution, err)
	}

	result := &Result{References: references}

	for i := range result.References {
		ref := &result.References[i]
		s.resolveReference(ref, convCtx, result)

		if ref.IsAmbiguous && !result.NeedsClarification {
			result.IsAmbiguous = true
			result.NeedsClarification = true
			result.ClarificationQuestion = clarificationQuestion(ref)
		}
	}

	s.logger.Debug("references resolved",
		zap.Int("reference_count", len(result.References)),
		zap.Int("entity_count", len(result.Entities)),
		zap.Bool("needs_clarification", result.NeedsClarification))

	return result, nil
}

// extractReferences runs a tagged-token pass over the query. Demonstrative
// or definite determiners followed by an entity noun become explicit or
// domain references; remaining bare pronoun tokens become pronoun references.
func (s *Service) extractReferences(queryText string) ([]Reference, error) {
	doc, err := prose.NewDocument(queryText, prose.WithExtraction(false))
	if err != nil {
		return nil, fmt.Errorf("tokenization failed: %w", err)
	}

	tokens := doc.Tokens()
	spans := locateTokens(queryText, tokens)

	var references []Reference
	claimed := make([]bool, len(tokens))

	for i := 0; i < len(tokens)-1; i++ {
		det := strings.ToLower(tokens[i].Text)
		noun := strings.ToLower(tokens[i+1].Text)

		if !determiners[det] {
			continue
		}
		entityType, ok := entityNouns[noun]
		if !ok {
			continue
		}

		refType := RefExplicit
		if demonstratives[det] && entityType == "orders" {
			// Order references may point at a previous query's filter
			// set rather than a tracked entity.
			refType = RefDomain
		}

		plurality := Singular
		if strings.HasSuffix(noun, "s") {
			plurality = Plural
		}

		references = append(references, Reference{
			Text:       queryText[spans[i].start:spans[i+1].end],
			Start:      spans[i].start,
			End:        spans[i+1].end,
			Type:       refType,
			Plurality:  plurality,
			EntityType: normalizeEntityType(entityType),
		})
		claimed[i] = true
		claimed[i+1] = true
	}

	for i, token := range tokens {
		if claimed[i] {
			continue
		}
		word := strings.ToLower(token.Text)

		var plurality Plurality
		switch {
		case pluralPronouns[word]:
			plurality = Plural
		case singularPronouns[word]:
			plurality = Singular
		default:
			continue
		}
		// Demonstratives acting as determiners are handled above; a bare
		// "that"/"those" reaching here is pronominal.
		references = append(references, Reference{
			Text:      token.Text,
			Start:     spans[i].start,
			End:       spans[i].end,
			Type:      RefPronoun,
			Plurality: plurality,
		})
	}

	return references, nil
}

func (s *Service) resolveReference(ref *Reference, convCtx *conversation.Context, result *Result) {
	switch ref.Type {
	case RefPronoun:
		s.resolvePronoun(ref, convCtx, result)
	case RefDomain:
		s.resolveDomain(ref, convCtx, result)
	case RefExplicit:
		s.resolveExplicit(ref, convCtx, result)
	}
}

func (s *Service) resolvePronoun(ref *Reference, convCtx *conversation.Context, result *Result) {
	if ref.Plurality == Singular {
		// Most recently active entity of the first populated type.
		for _, entityType := range conversation.AllEntityTypes {
			bucket := convCtx.ActiveEntities[entityType]
			if len(bucket) > 0 {
				entity := bucket[len(bucket)-1]
				ref.EntityType = entityType
				ref.Resolution = []conversation.Entity{entity}
				result.Entities = append(result.Entities, entity)
				return
			}
		}
		ref.IsAmbiguous = true
		return
	}

	// Plural: all active entities of the first type with more than one member.
	for _, entityType := range conversation.AllEntityTypes {
		bucket := convCtx.ActiveEntities[entityType]
		if len(bucket) > 1 {
			ref.EntityType = entityType
			ref.Resolution = append([]conversation.Entity(nil), bucket...)
			result.Entities = append(result.Entities, bucket...)
			return
		}
	}
	ref.IsAmbiguous = true
}

func (s *Service) resolveDomain(ref *Reference, convCtx *conversation.Context, result *Result) {
	prev := previousQueryTurn(convCtx)
	if prev != nil && (prev.QueryType == "order_history" || prev.IntentType == "order_history") {
		result.QueryReference = &QueryReference{
			QueryType: "order_history",
			SQL:       prev.SQL,
			Filters:   prev.Filters,
		}
		ref.Resolution = nil
		return
	}

	// No order-history turn to lean on; fall back to tracked entities.
	s.resolveExplicit(ref, convCtx, result)
}

func (s *Service) resolveExplicit(ref *Reference, convCtx *conversation.Context, result *Result) {
	bucket := convCtx.ActiveEntities[ref.EntityType]
	if len(bucket) == 0 {
		ref.IsAmbiguous = true
		return
	}

	if ref.Plurality == Singular || len(bucket) == 1 {
		entity := bucket[len(bucket)-1]
		ref.Resolution = []conversation.Entity{entity}
		result.Entities = append(result.Entities, entity)
		return
	}

	ref.Resolution = append([]conversation.Entity(nil), bucket...)
	result.Entities = append(result.Entities, bucket...)
}

// previousQueryTurn is the user turn before the current one.
func previousQueryTurn(convCtx *conversation.Context) *conversation.Turn {
	if turn := convCtx.LastUserTurn(); turn != nil {
		return turn
	}
	return nil
}

func clarificationQuestion(ref *Reference) string {
	if ref.Plurality == Plural {
		if ref.EntityType == "" {
			return "Which ones are you referring to?"
		}
		return fmt.Sprintf("Which %s are you referring to?", pluralNoun(ref.EntityType))
	}
	if ref.EntityType == "" {
		return "Which one are you referring to?"
	}
	return fmt.Sprintf("Which %s are you referring to?", singularNoun(ref.EntityType))
}

func singularNoun(t conversation.EntityType) string {
	switch t {
	case conversation.EntityItems:
		return "item"
	case conversation.EntityCategories:
		return "category"
	case conversation.EntityOptions:
		return "option"
	case conversation.EntityOptionItems:
		return "option item"
	case "orders":
		return "order"
	default:
		return string(t)
	}
}

// pluralNoun renders an entity type as the plural noun a question uses. The
// type keys are already plural; only the underscored one needs spacing.
func pluralNoun(t conversation.EntityType) string {
	if t == conversation.EntityOptionItems {
		return "option items"
	}
	return string(t)
}

func normalizeEntityType(t conversation.EntityType) conversation.EntityType {
	return t
}

type span struct {
	start int
	end   int
}

// locateTokens maps each token back to its byte offsets in the original
// text. Tokens arrive in order, so a forward scan is sufficient.
func locateTokens(text string, tokens []prose.Token) []span {
	spans := make([]span, len(tokens))
	cursor := 0
	for i, token := range tokens {
		idx := strings.Index(text[cursor:], token.Text)
		if idx < 0 {
			spans[i] = span{start: cursor, end: cursor}
			continue
		}
		start := cursor + idx
		spans[i] = span{start: start, end: start + len(token.Text)}
		cursor = start + len(token.Text)
	}
	return spans
}
