// Package api provides the gRPC RuleSetSync service that survey runtimes use
// to fetch and evaluate saved rule sets.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/solatis/skiplogic/internal/catalog"
	"github.com/solatis/skiplogic/internal/core/auth"
	"github.com/solatis/skiplogic/internal/rulegroup"
	"github.com/solatis/skiplogic/internal/rules"
	"github.com/solatis/skiplogic/internal/store"
	"github.com/solatis/skiplogic/internal/types"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// StoreFunc returns the store holding a workspace's rule sets.
type StoreFunc func(workspace string) (store.Store, error)

// RuleSetService implements RuleSetSyncServer.
// Thin orchestration layer delegating to the saved list and rules engine.
type RuleSetService struct {
	stores    StoreFunc
	savedKey  string
	formatter rulegroup.Formatter
	logger    *zap.Logger
}

// NewRuleSetService creates service instance with dependencies.
// cat labels questions in summaries and may be nil.
func NewRuleSetService(stores StoreFunc, savedKey string, cat *catalog.Catalog, logger *zap.Logger) (*RuleSetService, error) {
	if stores == nil {
		return nil, fmt.Errorf("stores cannot be nil")
	}
	if savedKey == "" {
		savedKey = rulegroup.DefaultSavedKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleSetService{
		stores:    stores,
		savedKey:  savedKey,
		formatter: rulegroup.NewFormatter(cat),
		logger:    logger,
	}, nil
}

// savedList resolves the saved list of the caller's workspace.
func (s *RuleSetService) savedList(ctx context.Context) (*rulegroup.SavedList, error) {
	workspace := auth.WorkspaceFromContext(ctx)
	if workspace == "" {
		return nil, status.Error(codes.Internal, "missing workspace in context")
	}
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}

	st, err := s.stores(workspace)
	if err != nil {
		return nil, status.Error(codes.Unavailable, fmt.Sprintf("failed to open workspace storage: %v", err))
	}
	return rulegroup.NewSavedList(st, s.savedKey, s.logger.With(zap.String("workspace", workspace))), nil
}

// ruleSetSummary is one entry of the ListRuleSets response.
type ruleSetSummary struct {
	Name       string    `json:"name"`
	SavedAt    time.Time `json:"savedAt"`
	Conditions int       `json:"conditions"`
	Actions    int       `json:"actions"`
	If         string    `json:"if"`
	Then       string    `json:"then"`
}

// ListRuleSets returns a summary of every saved rule set in stored order.
func (s *RuleSetService) ListRuleSets(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	saved, err := s.savedList(ctx)
	if err != nil {
		return nil, err
	}

	sets, err := saved.List()
	if err != nil {
		return nil, toStatus(err)
	}

	summaries := make([]ruleSetSummary, 0, len(sets))
	for _, rs := range sets {
		summaries = append(summaries, ruleSetSummary{
			Name:       rs.GroupName,
			SavedAt:    rs.SavedAt,
			Conditions: len(rs.Conditions),
			Actions:    len(rs.Actions),
			If:         s.formatter.SummarizeConditions(rs),
			Then:       s.formatter.SummarizeActions(rs),
		})
	}

	v, err := toValue(summaries)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return v.GetListValue(), nil
}

// GetRuleSet returns the saved rule set named by req in its stored layout.
func (s *RuleSetService) GetRuleSet(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	name := strings.TrimSpace(req.GetValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "rule set name is required")
	}

	saved, err := s.savedList(ctx)
	if err != nil {
		return nil, err
	}

	rs, err := saved.Find(name)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := toStruct(rs)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// evaluation is the EvaluateRuleSet response layout.
type evaluation struct {
	GroupName         string         `json:"groupName"`
	Matched           bool           `json:"matched"`
	MatchedGroup      int            `json:"matchedGroup"`
	MatchedConditions []int          `json:"matchedConditions"`
	Actions           []types.Action `json:"actions"`
}

// EvaluateRuleSet evaluates a saved rule set against a respondent's answers.
// The request carries "name" and an "answers" object keyed by question id;
// each answer is a string, number, bool or a list of those.
func (s *RuleSetService) EvaluateRuleSet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	name := strings.TrimSpace(fields["name"].GetStringValue())
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "rule set name is required")
	}
	answers, err := parseAnswers(fields["answers"])
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	saved, err := s.savedList(ctx)
	if err != nil {
		return nil, err
	}

	result, err := rules.NewEngine(saved, s.logger).Evaluate(name, answers)
	if err != nil {
		return nil, toStatus(err)
	}

	out, err := toStruct(evaluation{
		GroupName:         result.Outcome.GroupName,
		Matched:           result.Matched,
		MatchedGroup:      result.MatchedGroup,
		MatchedConditions: append([]int{}, result.MatchedConditions...),
		Actions:           result.Outcome.Actions,
	})
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

// parseAnswers converts the "answers" request field into types.Answers.
// A missing field means no answers.
func parseAnswers(v *structpb.Value) (types.Answers, error) {
	answers := types.Answers{}
	if v == nil {
		return answers, nil
	}
	if _, ok := v.GetKind().(*structpb.Value_NullValue); ok {
		return answers, nil
	}
	obj := v.GetStructValue()
	if obj == nil {
		return nil, fmt.Errorf("answers must be an object keyed by question id")
	}

	for question, value := range obj.GetFields() {
		if list := value.GetListValue(); list != nil {
			for _, item := range list.GetValues() {
				s, err := scalar(item)
				if err != nil {
					return nil, fmt.Errorf("answer %q: %w", question, err)
				}
				answers[question] = append(answers[question], s)
			}
			continue
		}
		s, err := scalar(value)
		if err != nil {
			return nil, fmt.Errorf("answer %q: %w", question, err)
		}
		answers[question] = []string{s}
	}
	return answers, nil
}

// scalar renders one answer value as the string the evaluator compares.
func scalar(v *structpb.Value) (string, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue, nil
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64), nil
	case *structpb.Value_BoolValue:
		return strconv.FormatBool(k.BoolValue), nil
	case *structpb.Value_NullValue:
		return "", nil
	default:
		return "", fmt.Errorf("unsupported value type %T", k)
	}
}

// toValue converts v to a protobuf Value through its JSON encoding, so the
// wire layout matches the stored documents.
func toValue(v any) (*structpb.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return structpb.NewValue(generic)
}

func toStruct(v any) (*structpb.Struct, error) {
	value, err := toValue(v)
	if err != nil {
		return nil, err
	}
	out := value.GetStructValue()
	if out == nil {
		return nil, fmt.Errorf("response is not an object")
	}
	return out, nil
}
