package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/coursegen-backend/internal/domain"
	"github.com/yungbote/coursegen-backend/internal/observability"
	"github.com/yungbote/coursegen-backend/internal/platform/openai"
)

const sectionSystemPrompt = `Tu es un concepteur pédagogique. Réécris l'explication fournie en français clair,
en conservant tous les faits, références normatives et chiffres. Réponds uniquement
par le texte réécrit, sans titre ni liste.`

type OpenAIEnhancer struct {
	ai      openai.Client
	model   string
	metrics *observability.Metrics
}

// NewOpenAIEnhancer takes an optional metrics sink; model only labels it.
func NewOpenAIEnhancer(ai openai.Client, model string, metrics *observability.Metrics) *OpenAIEnhancer {
	return &OpenAIEnhancer{ai: ai, model: model, metrics: metrics}
}

func (o *OpenAIEnhancer) Init(ctx context.Context) error {
	if o == nil || o.ai == nil {
		return errors.New("openai client not configured")
	}
	return nil
}

func (o *OpenAIEnhancer) EnhanceSection(ctx context.Context, section domain.CourseSection) (EnhanceResult, error) {
	user := fmt.Sprintf("Titre : %s\n\nExplication :\n%s", section.Title, section.Explanation)
	start := time.Now()
	text, err := o.ai.GenerateText(ctx, sectionSystemPrompt, user)
	if err != nil {
		o.metrics.ObserveLLMRequest(o.model, "error", time.Since(start))
		return EnhanceResult{}, err
	}
	o.metrics.ObserveLLMRequest(o.model, "ok", time.Since(start))
	text = strings.TrimSpace(text)
	if text == "" || text == strings.TrimSpace(section.Explanation) {
		return EnhanceResult{}, nil
	}
	return EnhanceResult{Enhanced: true, EnhancedContent: text}, nil
}

func (o *OpenAIEnhancer) Dispose() {}
