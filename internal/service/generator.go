package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sprintdesk/internal/model"
)

// GeneratorService calls the external report-generation endpoint. The
// app only POSTs context and renders the returned text; all analysis
// happens on the remote side.
type GeneratorService struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

func NewGeneratorService(baseURL, apiKey, model string) *GeneratorService {
	return &GeneratorService{baseURL: baseURL, apiKey: apiKey, model: model, client: &http.Client{}}
}

func (s *GeneratorService) chat(ctx context.Context, system, user string) (string, error) {
	body := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	payload, _ := json.Marshal(body)

	req, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/v1/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generator call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generator status %d: %s", resp.StatusCode, data)
	}

	data, _ := io.ReadAll(resp.Body)
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return result.Choices[0].Message.Content, nil
}

var modulePrompts = map[string]string{
	"market_sizing":         "You size markets for early-stage ventures. Produce a TAM/SAM/SOM estimate with stated assumptions and a short methodology note. Plain text.",
	"risk_assessment":       "You assess venture risk. List the top risks for this business with likelihood, impact and a mitigation each. Plain text.",
	"assumption_mapping":    "You map business assumptions. Rank the given assumptions by how lethal they are if wrong and how cheap they are to test. Plain text.",
	"competitor_scan":       "You scan competitive landscapes. Summarize the named competitors, their positioning and the whitespace left open. Plain text.",
	"assumption_playbook":   "You design validation experiments. For each assumption produce a concrete test, a success metric and a timebox. Plain text.",
	"async_interviews":      "You design customer interview scripts. Produce an async interview guide probing the stated assumptions and risks. Plain text.",
	"customer_voice":        "You simulate target-customer reactions. Write candid first-person responses from likely buyers to this offering. Plain text.",
	"demand_test":           "You design demand tests. Propose a landing-page or pre-order experiment with traffic plan and conversion thresholds. Plain text.",
	"partnership_viability": "You evaluate strategic partnerships. Assess fit, leverage and failure modes of the described partnership. Plain text.",
	"strategic_roadmap":     "You build strategic roadmaps. Produce a 90-day plan sequenced by the validation evidence gathered so far. Plain text.",
}

// CheckPreconditions enforces the per-module upstream-data rules before
// any network call. Failures are inline-explainable, not request errors.
func CheckPreconditions(moduleType string, sp *model.Sprint, intake *model.IntakeData) error {
	if intake == nil || sp.CompanyName == "" {
		return fmt.Errorf("%w: intake data with a company name is required", ErrPrecondition)
	}
	switch moduleType {
	case "assumption_mapping", "assumption_playbook":
		if n := jsonListLen(intake.Assumptions); n < 3 {
			return fmt.Errorf("%w: need at least 3 assumptions, have %d", ErrPrecondition, n)
		}
		if n := jsonListLen(intake.Risks); n < 5 {
			return fmt.Errorf("%w: need at least 5 risks, have %d", ErrPrecondition, n)
		}
	case "partnership_viability":
		if !sp.IsPartnershipEvaluation {
			return fmt.Errorf("%w: sprint is not a partnership evaluation", ErrPrecondition)
		}
	}
	return nil
}

func jsonListLen(raw []byte) int {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return 0
	}
	return len(items)
}

// GenerateReport produces the plain-text report for one module.
func (s *GeneratorService) GenerateReport(ctx context.Context, moduleType string, sp *model.Sprint, intake *model.IntakeData) (string, error) {
	system, ok := modulePrompts[moduleType]
	if !ok {
		return "", fmt.Errorf("%w: %s has no report generation", ErrUnknownModule, moduleType)
	}
	report, err := s.chat(ctx, system, intakeContext(sp, intake))
	if err != nil {
		return "", fmt.Errorf("generate %s: %w", moduleType, err)
	}
	return report, nil
}

type Decision struct {
	Report          string `json:"report"`
	Recommendation  string `json:"recommendation"`
	Confidence      int    `json:"confidence"`
	ModulesAnalyzed int    `json:"modules_analyzed"`
}

// GenerateDecision asks the remote side for a go/pivot/kill verdict
// over everything analyzed so far.
func (s *GeneratorService) GenerateDecision(ctx context.Context, sp *model.Sprint, intake *model.IntakeData, analyzed int) (*Decision, error) {
	system := `You are a venture decision engine. Given the business context, return JSON only:
{"report":"...","recommendation":"GO|PIVOT|KILL","confidence":0-100}.`
	user := fmt.Sprintf("%s\nModules analyzed so far: %d", intakeContext(sp, intake), analyzed)

	raw, err := s.chat(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("generate decision: %w", err)
	}
	var d Decision
	if err := json.Unmarshal([]byte(extractJSON(raw)), &d); err != nil {
		return nil, fmt.Errorf("decode decision: %w", err)
	}
	switch d.Recommendation {
	case "GO", "PIVOT", "KILL":
	default:
		return nil, fmt.Errorf("decode decision: bad recommendation %q", d.Recommendation)
	}
	if d.Confidence < 0 {
		d.Confidence = 0
	}
	if d.Confidence > 100 {
		d.Confidence = 100
	}
	d.ModulesAnalyzed = analyzed
	return &d, nil
}

// extractJSON strips markdown fences some models wrap around JSON.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func intakeContext(sp *model.Sprint, intake *model.IntakeData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Company: %s\nTier: %s\n", sp.CompanyName, sp.Tier)
	if sp.IsPartnershipEvaluation {
		sb.WriteString("Engagement type: partnership evaluation\n")
	}
	if intake == nil {
		return sb.String()
	}
	writeField := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&sb, "%s: %s\n", label, v)
		}
	}
	writeField("Business model", intake.BusinessModel)
	writeField("Product type", intake.ProductType)
	writeField("Stage", intake.Stage)
	writeField("Industry", intake.Industry)
	writeList := func(label string, raw []byte) {
		var items []string
		if json.Unmarshal(raw, &items) == nil && len(items) > 0 {
			fmt.Fprintf(&sb, "%s: %s\n", label, strings.Join(items, "; "))
		}
	}
	writeList("Competitors", intake.Competitors)
	writeList("Assumptions", intake.Assumptions)
	writeList("Risks", intake.Risks)
	writeField("Partner", intake.PartnerName)
	writeField("Partnership goal", intake.PartnershipGoal)
	return sb.String()
}
