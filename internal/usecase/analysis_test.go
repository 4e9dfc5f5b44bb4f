package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/example/artifact-scout/internal/audit"
	"github.com/example/artifact-scout/internal/domain"
)

type stubClassifier struct {
	result *domain.ClassificationResult
	err    error
	panic  bool
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, image []byte, mimeType string) (*domain.ClassificationResult, error) {
	s.calls++
	if s.panic {
		panic("nil pointer in decoder")
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubResolver struct {
	team  *domain.Team
	err   error
	calls []string
}

func (s *stubResolver) Resolve(ctx context.Context, location, objectType string) (*domain.Team, error) {
	s.calls = append(s.calls, location+"/"+objectType)
	return s.team, s.err
}

// stubAudit records synchronously.
type stubAudit struct {
	entries []domain.AuditLogEntry
}

func (s *stubAudit) Record(entry domain.AuditLogEntry) {
	s.entries = append(s.entries, entry)
}

func strPtr(s string) *string { return &s }

func validRequest() AnalysisRequest {
	return AnalysisRequest{
		Image:     []byte("jpeg-bytes"),
		MIMEType:  "image/jpeg",
		Location:  "caribbean",
		Threshold: "80",
	}
}

func passingResult() *domain.ClassificationResult {
	return &domain.ClassificationResult{
		IsUnderwater:      true,
		HasManMadeObject:  true,
		ManMadeConfidence: 88,
		ObjectType:        strPtr("Amphora"),
		ObjectConfidence:  91,
	}
}

func newTestUseCase(classifier *stubClassifier, resolver *stubResolver) (*AnalysisUseCase, *stubAudit) {
	recorder := &stubAudit{}
	return NewAnalysisUseCase(classifier, resolver, recorder, zap.NewNop()), recorder
}

func expectFailure(t *testing.T, outcome domain.Outcome, code domain.ErrorCode) domain.Failure {
	t.Helper()
	failure, ok := outcome.(domain.Failure)
	if !ok {
		t.Fatalf("expected failure %s, got %#v", code, outcome)
	}
	if failure.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, failure.Code, failure.Message)
	}
	return failure
}

func TestAnalyzeRejectsInvalidInputBeforeClassifying(t *testing.T) {
	tooLarge := validRequest()
	tooLarge.Image = make([]byte, domain.MaxImageSize+1)

	cases := map[string]struct {
		mutate  func(*AnalysisRequest)
		message string
	}{
		"missing image":     {func(r *AnalysisRequest) { r.Image = nil }, msgMissingFields},
		"missing location":  {func(r *AnalysisRequest) { r.Location = "" }, msgMissingFields},
		"missing threshold": {func(r *AnalysisRequest) { r.Threshold = "" }, msgMissingFields},
		"unknown location":  {func(r *AnalysisRequest) { r.Location = "atlantic" }, msgInvalidLocation},
		"odd threshold":     {func(r *AnalysisRequest) { r.Threshold = "70" }, msgInvalidThreshold},
		"non numeric":       {func(r *AnalysisRequest) { r.Threshold = "high" }, msgInvalidThreshold},
		"bad mime":          {func(r *AnalysisRequest) { r.MIMEType = "image/tiff" }, msgInvalidFileType},
		"too large":         {func(r *AnalysisRequest) { r.Image = tooLarge.Image }, MsgFileTooLarge},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			classifier := &stubClassifier{result: passingResult()}
			uc, recorder := newTestUseCase(classifier, &stubResolver{})

			req := validRequest()
			tc.mutate(&req)
			failure := expectFailure(t, uc.Analyze(context.Background(), req), domain.CodeInvalidInput)

			if failure.Message != tc.message {
				t.Fatalf("unexpected message: %s", failure.Message)
			}
			if classifier.calls != 0 {
				t.Fatalf("classifier must not run on invalid input")
			}
			if len(recorder.entries) != 0 {
				t.Fatalf("validation failures are not audited, got %d entries", len(recorder.entries))
			}
		})
	}
}

func TestAnalyzeAcceptsMaximumSize(t *testing.T) {
	uc, _ := newTestUseCase(&stubClassifier{result: passingResult()}, &stubResolver{team: &domain.Team{TeamName: "Reef Divers"}})
	req := validRequest()
	req.Image = make([]byte, domain.MaxImageSize)

	if _, ok := uc.Analyze(context.Background(), req).(domain.Success); !ok {
		t.Fatal("expected exactly 10 MiB to be accepted")
	}
}

func TestAnalyzeSafetyViolationWinsOverLaterChecks(t *testing.T) {
	result := passingResult()
	result.SafetyViolation = true
	result.ViolationType = strPtr("human faces")
	result.IsUnderwater = false
	uc, recorder := newTestUseCase(&stubClassifier{result: result}, &stubResolver{})

	failure := expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeInvalidInput)
	if strings.Contains(failure.Message, "human faces") {
		t.Fatalf("violation type must not be surfaced: %s", failure.Message)
	}
	if failure != domain.SafetyViolation() {
		t.Fatalf("unexpected failure: %+v", failure)
	}
	assertAudited(t, recorder, domain.CodeInvalidInput)
	if recorder.entries[0].ObjectDetected != nil || recorder.entries[0].ObjectConfidence != nil {
		t.Fatalf("safety exits do not record object data: %+v", recorder.entries[0])
	}
}

func TestAnalyzeNotUnderwater(t *testing.T) {
	result := passingResult()
	result.IsUnderwater = false
	result.HasManMadeObject = false
	resolver := &stubResolver{}
	uc, recorder := newTestUseCase(&stubClassifier{result: result}, resolver)

	expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeNotUnderwater)
	assertAudited(t, recorder, domain.CodeNotUnderwater)
	if len(resolver.calls) != 0 {
		t.Fatal("resolver must not run after a gate failure")
	}
}

func TestAnalyzeNoManMadeObject(t *testing.T) {
	result := &domain.ClassificationResult{IsUnderwater: true, ManMadeConfidence: 5}
	uc, recorder := newTestUseCase(&stubClassifier{result: result}, &stubResolver{})

	expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeNoManMadeObject)
	assertAudited(t, recorder, domain.CodeNoManMadeObject)
}

func TestAnalyzeUsesWeakestConfidence(t *testing.T) {
	result := passingResult()
	result.ManMadeConfidence = 90
	result.ObjectConfidence = 60
	resolver := &stubResolver{team: &domain.Team{TeamName: "Reef Divers"}}
	uc, recorder := newTestUseCase(&stubClassifier{result: result}, resolver)

	req := validRequest()
	req.Threshold = "65"
	failure := expectFailure(t, uc.Analyze(context.Background(), req), domain.CodeBelowThreshold)

	if !strings.Contains(failure.Message, "Threshold: 65%") || !strings.Contains(failure.Message, "Detected: 60%") {
		t.Fatalf("unexpected message: %s", failure.Message)
	}
	if len(resolver.calls) != 0 {
		t.Fatal("resolver must not run below threshold")
	}
	entry := assertAudited(t, recorder, domain.CodeBelowThreshold)
	if entry.ObjectConfidence == nil || *entry.ObjectConfidence != 60 {
		t.Fatalf("expected audited confidence 60, got %v", entry.ObjectConfidence)
	}
	if entry.ObjectDetected == nil || *entry.ObjectDetected != "Amphora" {
		t.Fatalf("expected raw object type, got %v", entry.ObjectDetected)
	}
}

func TestAnalyzeManMadeConfidenceAlsoGates(t *testing.T) {
	result := passingResult()
	result.ManMadeConfidence = 79
	result.ObjectConfidence = 99
	uc, _ := newTestUseCase(&stubClassifier{result: result}, &stubResolver{})

	failure := expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeBelowThreshold)
	if !strings.Contains(failure.Message, "Detected: 79%") {
		t.Fatalf("unexpected message: %s", failure.Message)
	}
}

func TestAnalyzeThresholdIsInclusive(t *testing.T) {
	result := passingResult()
	result.ManMadeConfidence = 80
	result.ObjectConfidence = 80
	uc, _ := newTestUseCase(&stubClassifier{result: result}, &stubResolver{team: &domain.Team{TeamName: "Reef Divers"}})

	if _, ok := uc.Analyze(context.Background(), validRequest()).(domain.Success); !ok {
		t.Fatal("confidence equal to the threshold must pass")
	}
}

func TestAnalyzeNoTeamMatch(t *testing.T) {
	resolver := &stubResolver{}
	uc, recorder := newTestUseCase(&stubClassifier{result: passingResult()}, resolver)

	failure := expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeNoTeamMatch)
	if !failure.IsWarning() {
		t.Fatal("5.5 must be a warning")
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != "caribbean/amphora" {
		t.Fatalf("expected lower-cased lookup, got %v", resolver.calls)
	}
	entry := assertAudited(t, recorder, domain.CodeNoTeamMatch)
	if *entry.ObjectDetected != "amphora" || *entry.ObjectConfidence != 91 || entry.TeamMatched != nil {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestAnalyzeSuccess(t *testing.T) {
	resolver := &stubResolver{team: &domain.Team{TeamName: "Reef Divers", Location: "caribbean", ObjectType: "amphora"}}
	uc, recorder := newTestUseCase(&stubClassifier{result: passingResult()}, resolver)

	outcome := uc.Analyze(context.Background(), validRequest())
	success, ok := outcome.(domain.Success)
	if !ok {
		t.Fatalf("expected success, got %#v", outcome)
	}
	want := domain.Success{TeamName: "Reef Divers", ProjectName: "", ObjectType: "amphora", ObjectConfidence: 91, ManMadeConfidence: 88}
	if success != want {
		t.Fatalf("expected %+v, got %+v", want, success)
	}

	if len(recorder.entries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.ErrorType != nil {
		t.Fatalf("success must have no error type, got %s", *entry.ErrorType)
	}
	if entry.TeamMatched == nil || *entry.TeamMatched != "Reef Divers" || entry.ConfidenceThreshold != 80 {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
}

func TestAnalyzeSuccessCarriesProjectName(t *testing.T) {
	resolver := &stubResolver{team: &domain.Team{TeamName: "Deep Past", ProjectName: strPtr("Antikythera II")}}
	uc, _ := newTestUseCase(&stubClassifier{result: passingResult()}, resolver)

	success := uc.Analyze(context.Background(), validRequest()).(domain.Success)
	if success.ProjectName != "Antikythera II" {
		t.Fatalf("unexpected project name: %q", success.ProjectName)
	}
}

func TestAnalyzeClassifierErrorBecomesUnexpectedFailure(t *testing.T) {
	uc, recorder := newTestUseCase(&stubClassifier{err: errors.New("vision model request failed: 529")}, &stubResolver{})

	failure := expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeInvalidInput)
	if failure.Message != "An unexpected error occurred: vision model request failed: 529" {
		t.Fatalf("unexpected message: %s", failure.Message)
	}
	if len(recorder.entries) != 0 {
		t.Fatal("infrastructure errors are not audited")
	}
}

func TestAnalyzeResolverErrorBecomesUnexpectedFailure(t *testing.T) {
	uc, recorder := newTestUseCase(&stubClassifier{result: passingResult()}, &stubResolver{err: errors.New("db unreachable")})

	failure := expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeInvalidInput)
	if !strings.HasPrefix(failure.Message, "An unexpected error occurred: ") || !strings.Contains(failure.Message, "db unreachable") {
		t.Fatalf("unexpected message: %s", failure.Message)
	}
	if len(recorder.entries) != 0 {
		t.Fatal("infrastructure errors are not audited")
	}
}

func TestAnalyzeRecoversPanics(t *testing.T) {
	uc, _ := newTestUseCase(&stubClassifier{panic: true}, &stubResolver{})

	failure := expectFailure(t, uc.Analyze(context.Background(), validRequest()), domain.CodeInvalidInput)
	if !strings.Contains(failure.Message, "nil pointer in decoder") {
		t.Fatalf("unexpected message: %s", failure.Message)
	}
}

func TestOutcomeLabel(t *testing.T) {
	if got := outcomeLabel(domain.Success{}); got != "success" {
		t.Fatalf("unexpected label: %s", got)
	}
	if got := outcomeLabel(domain.NoTeamMatch()); got != "5.5" {
		t.Fatalf("unexpected label: %s", got)
	}
	if got := outcomeLabel(nil); got != "unknown" {
		t.Fatalf("unexpected label: %s", got)
	}
}

func assertAudited(t *testing.T, recorder *stubAudit, code domain.ErrorCode) domain.AuditLogEntry {
	t.Helper()
	if len(recorder.entries) != 1 {
		t.Fatalf("expected exactly one audit entry, got %d", len(recorder.entries))
	}
	entry := recorder.entries[0]
	if entry.ErrorType == nil || *entry.ErrorType != code {
		t.Fatalf("expected audited error %s, got %v", code, entry.ErrorType)
	}
	if entry.Location != "caribbean" {
		t.Fatalf("unexpected audited location: %s", entry.Location)
	}
	return entry
}

type failingStore struct{}

func (failingStore) SaveUploadLog(ctx context.Context, entry domain.AuditLogEntry) error {
	return errors.New("upload_logs unavailable")
}

func TestAuditFailureNeverChangesOutcome(t *testing.T) {
	team := &domain.Team{TeamName: "Reef Divers"}
	notUnderwater := passingResult()
	notUnderwater.IsUnderwater = false
	lowConfidence := passingResult()
	lowConfidence.ObjectConfidence = 10

	cases := map[string]struct {
		result *domain.ClassificationResult
		team   *domain.Team
	}{
		"success":        {passingResult(), team},
		"no team":        {passingResult(), nil},
		"not underwater": {notUnderwater, team},
		"low confidence": {lowConfidence, team},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			withStub, _ := newTestUseCase(&stubClassifier{result: tc.result}, &stubResolver{team: tc.team})
			want := withStub.Analyze(context.Background(), validRequest())

			recorder := audit.NewRecorder(failingStore{}, time.Second, zap.NewNop())
			withBrokenSink := NewAnalysisUseCase(&stubClassifier{result: tc.result}, &stubResolver{team: tc.team}, recorder, zap.NewNop())
			got := withBrokenSink.Analyze(context.Background(), validRequest())
			if err := recorder.Close(context.Background()); err != nil {
				t.Fatalf("unexpected close error: %v", err)
			}

			if got != want {
				t.Fatalf("audit failure changed outcome: want %#v, got %#v", want, got)
			}
		})
	}
}
