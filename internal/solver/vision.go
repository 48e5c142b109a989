package solver

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/courtlens/casestatus-api/internal/court"
)

// prompt constrains the model to the captcha family the target site serves:
// a two-term addition or subtraction rendered as an image.
const prompt = "Solve the math problem in this image. It is a simple addition or " +
	"subtraction of two numbers. Respond with only the numerical answer, " +
	"nothing else. For example, if the image shows '5 + 3', respond with '8'."

// VisionSolver solves captchas via an OpenAI-compatible chat-completions
// endpoint with image input. Multiple API keys may be configured; calls
// rotate through them round-robin so no single key absorbs every request.
type VisionSolver struct {
	clients []openai.Client
	model   string
	next    atomic.Uint64
	logger  *slog.Logger
}

// VisionOptions configures a VisionSolver.
type VisionOptions struct {
	APIKeys []string
	Model   string
	BaseURL string
	Logger  *slog.Logger
}

// NewVision creates a solver from one client per API key.
func NewVision(opts VisionOptions) *VisionSolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clients := make([]openai.Client, 0, len(opts.APIKeys))
	for _, key := range opts.APIKeys {
		clients = append(clients, openai.NewClient(
			option.WithAPIKey(key),
			option.WithBaseURL(opts.BaseURL),
		))
	}

	return &VisionSolver{
		clients: clients,
		model:   opts.Model,
		logger:  logger,
	}
}

func (s *VisionSolver) Name() string { return "vision" }

// Solve sends the image as a base64 data URL and parses the reply.
func (s *VisionSolver) Solve(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", court.Errf(court.KindSolverFailure, "empty captcha image")
	}

	client := s.clients[s.next.Add(1)%uint64(len(s.clients))]
	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(s.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
		Temperature:         openai.Float(0.1),
		MaxCompletionTokens: openai.Int(32),
	})
	if err != nil {
		return "", court.Wrap(court.KindSolverFailure, err, "captcha solver call failed")
	}
	if len(resp.Choices) == 0 {
		// Safety blocks and filtered prompts come back with no candidates.
		return "", court.Errf(court.KindSolverFailure, "solver returned no candidates")
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Debug("solver reply", "model", s.model, "raw", reply)

	return ParseAnswer(reply)
}
