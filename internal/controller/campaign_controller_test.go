package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/votereach/broadcast-backend/internal/controller"
	appErrors "github.com/votereach/broadcast-backend/internal/errors"
	"github.com/votereach/broadcast-backend/internal/model"
	"github.com/votereach/broadcast-backend/internal/queue"
	"github.com/votereach/broadcast-backend/internal/service"
)

// --- Mocks ---

type mockCampaignRepo struct {
	campaigns map[int]*model.Campaign
	batches   map[int]*model.Batch
	nextID    int
}

func newMockCampaignRepo() *mockCampaignRepo {
	return &mockCampaignRepo{
		campaigns: map[int]*model.Campaign{},
		batches:   map[int]*model.Batch{},
		nextID:    1,
	}
}

func (m *mockCampaignRepo) id() int {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockCampaignRepo) CreateCampaignGraph(c *model.Campaign, chunks [][]model.Voter) ([]*model.Batch, error) {
	c.ID = m.id()
	batches := []*model.Batch{}
	total := 0
	for i, chunk := range chunks {
		b := &model.Batch{
			ID:              m.id(),
			CampaignID:      c.ID,
			BatchIndex:      i,
			TotalRecipients: len(chunk),
			Status:          model.BatchQueued,
		}
		total += len(chunk)
		m.batches[b.ID] = b
		batches = append(batches, b)
	}
	c.TotalRecipients = total
	m.campaigns[c.ID] = c
	return batches, nil
}

func (m *mockCampaignRepo) GetByID(id int) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (m *mockCampaignRepo) GetStatus(id int) (model.CampaignStatus, error) {
	c, err := m.GetByID(id)
	if err != nil {
		return "", err
	}
	return c.Status, nil
}

func (m *mockCampaignRepo) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
	all := []*model.Campaign{}
	for id := 1; id < m.nextID; id++ {
		c, ok := m.campaigns[id]
		if !ok {
			continue
		}
		if channel != "" && string(c.Channel) != channel {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		all = append(all, c)
	}
	if offset > len(all) {
		return []*model.Campaign{}, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *mockCampaignRepo) UpdateStatus(id int, status model.CampaignStatus) error {
	c, err := m.GetByID(id)
	if err != nil {
		return err
	}
	c.Status = status
	return nil
}

func (m *mockCampaignRepo) AddCounters(id, processed, success, failure int) error { return nil }

func (m *mockCampaignRepo) MarkOutcome(id int, status model.CampaignStatus) error { return nil }

func (m *mockCampaignRepo) Cancel(id int) error {
	c, err := m.GetByID(id)
	if err != nil {
		return err
	}
	if c.Status.IsTerminal() {
		return appErrors.NewCampaignTerminal(id, string(c.Status))
	}
	c.Status = model.CampaignCancelled
	return nil
}

type mockBatchRepo struct {
	store *mockCampaignRepo
}

func (m mockBatchRepo) GetByID(id int) (*model.Batch, error) { return m.store.batches[id], nil }
func (m mockBatchRepo) ListByCampaign(campaignID int) ([]*model.Batch, error) {
	out := []*model.Batch{}
	for id := 1; id < m.store.nextID; id++ {
		if b, ok := m.store.batches[id]; ok && b.CampaignID == campaignID {
			out = append(out, b)
		}
	}
	return out, nil
}
func (m mockBatchRepo) UpdateStatus(batchID int, status model.BatchStatus) error { return nil }
func (m mockBatchRepo) SetJobID(batchID int, jobID string) error {
	m.store.batches[batchID].JobID = jobID
	return nil
}
func (m mockBatchRepo) AddCounters(batchID, processed, success, failure int) error { return nil }

type mockRecipientRepo struct{}

func (mockRecipientRepo) ListByBatch(batchID int) ([]*model.Recipient, error) { return nil, nil }
func (mockRecipientRepo) MarkResult(id int, status model.RecipientStatus, ref, lastErr string) error {
	return nil
}
func (mockRecipientRepo) GetByProviderRef(ref string) (*model.Recipient, error) { return nil, nil }
func (mockRecipientRepo) TransitionByProviderRef(ref string, status model.RecipientStatus) (model.RecipientStatus, bool, error) {
	return "", false, nil
}
func (mockRecipientRepo) StatusHistogram(campaignID int) (map[string]int, error) {
	return map[string]int{"sent": 3, "failed": 1}, nil
}

type mockVoterRepo struct {
	voters []model.Voter
}

func (m *mockVoterRepo) GetByID(id int) (*model.Voter, error) {
	for _, v := range m.voters {
		if v.ID == id {
			cp := v
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockVoterRepo) ListByLGAs(lgas []string) ([]model.Voter, error) {
	matched := []model.Voter{}
	for _, v := range m.voters {
		for _, lga := range lgas {
			if v.LGA == lga {
				matched = append(matched, v)
				break
			}
		}
	}
	return matched, nil
}

type mockAudioRepo struct {
	assets map[int]*model.AudioAsset
}

func (m *mockAudioRepo) Create(a *model.AudioAsset) error {
	a.ID = len(m.assets) + 1
	m.assets[a.ID] = a
	return nil
}
func (m *mockAudioRepo) GetByID(id int) (*model.AudioAsset, error) { return m.assets[id], nil }
func (m *mockAudioRepo) ListAll() ([]model.AudioAsset, error) {
	out := []model.AudioAsset{}
	for _, a := range m.assets {
		out = append(out, *a)
	}
	return out, nil
}

type recordingPublisher struct {
	published []queue.Job
}

func (p *recordingPublisher) Publish(queueName string, job queue.Job) error {
	p.published = append(p.published, job)
	return nil
}

// --- Fixture ---

type fixture struct {
	controller *controller.CampaignController
	repo       *mockCampaignRepo
	voters     *mockVoterRepo
	publisher  *recordingPublisher
}

func newFixture() *fixture {
	repo := newMockCampaignRepo()
	voters := &mockVoterRepo{}
	audio := &mockAudioRepo{assets: map[int]*model.AudioAsset{}}
	publisher := &recordingPublisher{}

	return &fixture{
		controller: &controller.CampaignController{
			Builder: &service.CampaignBuilder{
				CampaignRepo: repo,
				VoterRepo:    voters,
				AudioRepo:    audio,
				SMSBatchSize: 10,
			},
			Enqueuer: &service.BatchEnqueuer{
				CampaignRepo: repo,
				BatchRepo:    mockBatchRepo{repo},
				Queue:        publisher,
			},
			CampaignRepo:  repo,
			BatchRepo:     mockBatchRepo{repo},
			RecipientRepo: mockRecipientRepo{},
		},
		repo:      repo,
		voters:    voters,
		publisher: publisher,
	}
}

func (f *fixture) seedVoters(n int, lga string) {
	for i := 0; i < n; i++ {
		f.voters.voters = append(f.voters.voters, model.Voter{
			ID:        len(f.voters.voters) + 1,
			FirstName: fmt.Sprintf("Voter%d", i),
			Phone:     fmt.Sprintf("+2348030%06d", i),
			LGA:       lga,
		})
	}
}

func (f *fixture) router() *chi.Mux {
	r := chi.NewRouter()
	r.Post("/campaigns", f.controller.CreateCampaign)
	r.Get("/campaigns", f.controller.ListCampaigns)
	r.Get("/campaigns/{id}", f.controller.GetCampaignSummary)
	r.Post("/campaigns/{id}/cancel", f.controller.CancelCampaign)
	return r
}

func doJSON(router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Reader
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewReader(b)
	} else {
		body = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// --- Tests ---

func TestCreateCampaignHappyPath(t *testing.T) {
	f := newFixture()
	f.seedVoters(25, "Ikeja")

	w := doJSON(f.router(), "POST", "/campaigns", map[string]any{
		"title":            "GOTV reminder",
		"channel":          "sms",
		"target_lgas":      []string{"Ikeja"},
		"message_template": "Hi {{first_name}}, vote on Saturday",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var result service.BuildResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatal(err)
	}
	if result.TotalRecipients != 25 {
		t.Errorf("expected 25 recipients, got %d", result.TotalRecipients)
	}
	if len(result.Batches) != 3 {
		t.Errorf("expected 3 batches of size 10, got %d", len(result.Batches))
	}
	if len(f.publisher.published) != 3 {
		t.Errorf("expected one job per batch, got %d", len(f.publisher.published))
	}
	if result.Campaign.Status != model.CampaignInProgress {
		t.Errorf("expected in_progress after enqueue, got %s", result.Campaign.Status)
	}
}

func TestCreateCampaignNoEligibleRecipients(t *testing.T) {
	f := newFixture()

	w := doJSON(f.router(), "POST", "/campaigns", map[string]any{
		"channel":          "sms",
		"target_lgas":      []string{"Nowhere"},
		"message_template": "Hello",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if len(f.repo.campaigns) != 0 {
		t.Error("no campaign row may exist when the audience is empty")
	}
	if len(f.publisher.published) != 0 {
		t.Error("nothing may be enqueued when the build fails")
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	f := newFixture()
	f.seedVoters(5, "Ikeja")

	cases := []map[string]any{
		{"channel": "sms", "target_lgas": []string{"Ikeja"}},             // missing template
		{"channel": "sms", "message_template": "Hi"},                     // missing LGAs
		{"channel": "email", "target_lgas": []string{"Ikeja"}},           // unknown channel
		{"channel": "voice", "target_lgas": []string{"Ikeja"}},           // missing asset
		{"channel": "voice", "target_lgas": []string{"Ikeja"}, "audio_asset_id": 99}, // unknown asset
	}
	for i, payload := range cases {
		w := doJSON(f.router(), "POST", "/campaigns", payload)
		if w.Code != http.StatusBadRequest {
			t.Errorf("case %d: expected 400, got %d", i, w.Code)
		}
	}
}

func TestListCampaignsPagination(t *testing.T) {
	f := newFixture()
	for i := 0; i < 25; i++ {
		c := &model.Campaign{
			Title:   fmt.Sprintf("Campaign %d", i),
			Channel: model.ChannelSMS,
			Status:  model.CampaignCompleted,
		}
		f.repo.CreateCampaignGraph(c, nil)
	}

	seen := map[int]bool{}
	for page := 1; page <= 3; page++ {
		w := doJSON(f.router(), "GET", "/campaigns?page="+strconv.Itoa(page)+"&page_size=10", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("page %d: expected 200, got %d", page, w.Code)
		}

		var resp struct {
			Data       []*model.Campaign `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				PageSize   int `json:"page_size"`
				TotalCount int `json:"total_count"`
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}

		if resp.Pagination.TotalCount != 25 || resp.Pagination.TotalPages != 3 {
			t.Errorf("page %d: unexpected pagination %+v", page, resp.Pagination)
		}
		want := 10
		if page == 3 {
			want = 5
		}
		if len(resp.Data) != want {
			t.Errorf("page %d: expected %d rows, got %d", page, want, len(resp.Data))
		}
		for _, c := range resp.Data {
			if seen[c.ID] {
				t.Errorf("campaign %d appeared on more than one page", c.ID)
			}
			seen[c.ID] = true
		}
	}
}

func TestListCampaignsFilters(t *testing.T) {
	f := newFixture()
	sms := &model.Campaign{Channel: model.ChannelSMS, Status: model.CampaignCompleted}
	voice := &model.Campaign{Channel: model.ChannelVoice, Status: model.CampaignInProgress}
	f.repo.CreateCampaignGraph(sms, nil)
	f.repo.CreateCampaignGraph(voice, nil)

	w := doJSON(f.router(), "GET", "/campaigns?channel=voice", nil)
	var resp struct {
		Data []*model.Campaign `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Channel != model.ChannelVoice {
		t.Errorf("expected only the voice campaign, got %+v", resp.Data)
	}
}

func TestGetCampaignSummary(t *testing.T) {
	f := newFixture()
	f.seedVoters(12, "Ikeja")
	router := f.router()
	doJSON(router, "POST", "/campaigns", map[string]any{
		"channel":          "sms",
		"target_lgas":      []string{"Ikeja"},
		"message_template": "Hi",
	})

	w := doJSON(router, "GET", "/campaigns/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp struct {
		Campaign   *model.Campaign `json:"campaign"`
		Batches    []*model.Batch  `json:"batches"`
		Recipients map[string]int  `json:"recipients"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Campaign == nil || resp.Campaign.TotalRecipients != 12 {
		t.Errorf("unexpected campaign in summary: %+v", resp.Campaign)
	}
	if len(resp.Batches) != 2 {
		t.Errorf("expected 2 batches, got %d", len(resp.Batches))
	}
	if resp.Recipients["sent"] != 3 {
		t.Errorf("expected histogram passthrough, got %v", resp.Recipients)
	}
}

func TestGetCampaignSummaryNotFound(t *testing.T) {
	f := newFixture()

	w := doJSON(f.router(), "GET", "/campaigns/42", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestCancelCampaign(t *testing.T) {
	f := newFixture()
	c := &model.Campaign{Channel: model.ChannelSMS, Status: model.CampaignInProgress}
	f.repo.CreateCampaignGraph(c, nil)

	w := doJSON(f.router(), "POST", fmt.Sprintf("/campaigns/%d/cancel", c.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if c.Status != model.CampaignCancelled {
		t.Errorf("expected cancelled, got %s", c.Status)
	}
}

func TestCancelTerminalCampaignConflicts(t *testing.T) {
	f := newFixture()
	c := &model.Campaign{Channel: model.ChannelSMS, Status: model.CampaignCompleted}
	f.repo.CreateCampaignGraph(c, nil)

	w := doJSON(f.router(), "POST", fmt.Sprintf("/campaigns/%d/cancel", c.ID), nil)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for terminal campaign, got %d", w.Code)
	}
	if c.Status != model.CampaignCompleted {
		t.Errorf("terminal status must not change, got %s", c.Status)
	}
}
