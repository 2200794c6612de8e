package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"synclife/internal/model"
)

// ErrContentGeneration marks any failure to obtain a conforming schedule.
var ErrContentGeneration = errors.New("content generation failed")

// Generator is the external schedule generation call. It returns the raw JSON text.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GenAIGenerator calls a Gemini model with a structured output schema.
type GenAIGenerator struct {
	client *genai.Client
	model  string
}

// NewGenAIGenerator creates a generator backed by the Gemini API.
func NewGenAIGenerator(ctx context.Context, apiKey, modelName string) (*GenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}
	return &GenAIGenerator{client: client, model: modelName}, nil
}

// Generate performs a single request. There is no retry and no streaming.
func (g *GenAIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   req.Schema,
	})
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return resp.Text(), nil
}

// GenerateSchedule builds the request, calls the generator and decodes the result.
// Every failure wraps ErrContentGeneration and no partial schedule is returned.
func GenerateSchedule(ctx context.Context, gen Generator, p *model.Profile, log *zap.Logger) (*model.WeeklySchedule, error) {
	req := BuildRequest(p)
	if req.Conflict != nil {
		log.Info("school pickup conflict encoded in request",
			zap.String("school_end", req.Conflict.SchoolEnd),
			zap.String("work_hours", req.Conflict.WorkHours),
			zap.Bool("assumed", req.Conflict.Assumed),
		)
	}

	raw, err := gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}
	week, err := DecodeSchedule(raw)
	if err != nil {
		return nil, err
	}
	log.Info("weekly schedule generated", zap.Int("days", len(week.Plans)))
	return week, nil
}

// DecodeSchedule strictly parses generator output and enforces the schedule contract.
func DecodeSchedule(raw string) (*model.WeeklySchedule, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: failed to receive content from the AI", ErrContentGeneration)
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	var doc wireSchedule
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrContentGeneration, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after schedule", ErrContentGeneration)
	}
	week, err := doc.toModel()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}
	if err := week.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrContentGeneration, err)
	}
	week.ReissueLongIDs(uuid.NewString)
	week.Normalize()
	return week, nil
}

// Wire types keep required fields as pointers so absence can be told apart from zero values.
type wireSchedule struct {
	Plans *[]wireDay `json:"plans"`
}

type wireDay struct {
	Date            *string      `json:"date"`
	MotivationQuote *string      `json:"motivationQuote"`
	Tasks           *[]wireTask  `json:"tasks"`
	Meals           *model.Meals `json:"meals"`
}

type wireTask struct {
	ID           *string `json:"id"`
	Title        *string `json:"title"`
	Time         *string `json:"time"`
	Category     *string `json:"category"`
	Completed    *bool   `json:"completed"`
	AlarmEnabled *bool   `json:"alarmEnabled"`
	Description  string  `json:"description,omitempty"`
}

func (w wireSchedule) toModel() (*model.WeeklySchedule, error) {
	if w.Plans == nil {
		return nil, fmt.Errorf("%w: plans is required", model.ErrInvalidSchedule)
	}
	week := &model.WeeklySchedule{Plans: make([]model.DailyPlan, 0, len(*w.Plans))}
	for i, d := range *w.Plans {
		if d.Date == nil || d.MotivationQuote == nil || d.Tasks == nil || d.Meals == nil {
			return nil, fmt.Errorf("%w: day %d: date, motivationQuote, tasks and meals are required", model.ErrInvalidSchedule, i)
		}
		plan := model.DailyPlan{
			Date:            *d.Date,
			MotivationQuote: *d.MotivationQuote,
			Meals:           *d.Meals,
			Tasks:           make([]model.Task, 0, len(*d.Tasks)),
		}
		for j, t := range *d.Tasks {
			if t.ID == nil || t.Title == nil || t.Time == nil || t.Category == nil || t.Completed == nil || t.AlarmEnabled == nil {
				return nil, fmt.Errorf("%w: day %d task %d: missing required field", model.ErrInvalidSchedule, i, j)
			}
			plan.Tasks = append(plan.Tasks, model.Task{
				ID:           *t.ID,
				Title:        *t.Title,
				Time:         *t.Time,
				Category:     model.Category(*t.Category),
				Completed:    *t.Completed,
				AlarmEnabled: *t.AlarmEnabled,
				Description:  t.Description,
			})
		}
		week.Plans = append(week.Plans, plan)
	}
	return week, nil
}
