package service_test

import (
	"sort"
	"sync"
	"time"

	appErrors "github.com/votereach/broadcast-backend/internal/errors"
	"github.com/votereach/broadcast-backend/internal/model"
	"github.com/votereach/broadcast-backend/internal/repository"
)

// memStore backs every repository interface with in-memory maps so the
// builder, worker, reconciler, and aggregator can be exercised end to end
// without Postgres.
type memStore struct {
	mu         sync.Mutex
	campaigns  map[int]*model.Campaign
	batches    map[int]*model.Batch
	recipients map[int]*model.Recipient
	voters     []model.Voter
	assets     map[int]*model.AudioAsset
	nextID     int
}

func newMemStore() *memStore {
	return &memStore{
		campaigns:  map[int]*model.Campaign{},
		batches:    map[int]*model.Batch{},
		recipients: map[int]*model.Recipient{},
		assets:     map[int]*model.AudioAsset{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

// ====================== CampaignRepositoryInterface ======================

func (s *memStore) CreateCampaignGraph(c *model.Campaign, chunks [][]model.Voter) ([]*model.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batches := []*model.Batch{}
	recipients := []*model.Recipient{}
	total := 0
	index := 0

	for _, chunk := range chunks {
		valid := []model.Voter{}
		for _, v := range chunk {
			if model.ValidPhone(v.Phone) {
				valid = append(valid, v)
			}
		}
		if len(valid) == 0 {
			continue
		}

		b := &model.Batch{
			CampaignID:      0, // fixed up below once the campaign has an id
			BatchIndex:      index,
			TotalRecipients: len(valid),
			Status:          model.BatchQueued,
		}
		batches = append(batches, b)
		for _, v := range valid {
			recipients = append(recipients, &model.Recipient{
				VoterID:     v.ID,
				Phone:       v.Phone,
				FirstName:   v.FirstName,
				LastName:    v.LastName,
				State:       v.State,
				LGA:         v.LGA,
				Ward:        v.Ward,
				PollingUnit: v.PollingUnit,
				Status:      model.RecipientQueued,
				BatchID:     index, // placeholder, fixed up below
			})
		}
		total += len(valid)
		index++
	}

	if total == 0 {
		return nil, appErrors.NewNoEligibleRecipients(c.TargetLGAs)
	}

	c.ID = s.id()
	c.Status = model.CampaignQueued
	c.TotalRecipients = total
	c.CreatedAt = time.Now()
	s.campaigns[c.ID] = c

	batchIDs := make([]int, len(batches))
	for i, b := range batches {
		b.ID = s.id()
		b.CampaignID = c.ID
		batchIDs[i] = b.ID
		s.batches[b.ID] = b
	}
	for _, r := range recipients {
		r.ID = s.id()
		r.CampaignID = c.ID
		r.BatchID = batchIDs[r.BatchID]
		s.recipients[r.ID] = r
	}

	return batches, nil
}

func (s *memStore) GetByID(id int) (*model.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	cp := *c
	return &cp, nil
}

func (s *memStore) GetStatus(id int) (model.CampaignStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return "", appErrors.NewCampaignNotFound(id)
	}
	return c.Status, nil
}

func (s *memStore) ListCampaigns(offset, limit int, channel, status string) ([]*model.Campaign, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := []*model.Campaign{}
	for _, c := range s.campaigns {
		if channel != "" && string(c.Channel) != channel {
			continue
		}
		if status != "" && string(c.Status) != status {
			continue
		}
		all = append(all, c)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	total := len(all)
	if offset > total {
		return []*model.Campaign{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *memStore) UpdateStatus(campaignID int, status model.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[campaignID]; ok {
		c.Status = status
	}
	return nil
}

func (s *memStore) AddCounters(campaignID, processed, success, failure int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.campaigns[campaignID]; ok {
		c.ProcessedRecipients += processed
		c.SuccessCount += success
		c.FailureCount += failure
	}
	return nil
}

func (s *memStore) MarkOutcome(campaignID int, status model.CampaignStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok || c.Status.IsTerminal() {
		return nil
	}
	c.Status = status
	if c.CompletedAt == nil {
		now := time.Now()
		c.CompletedAt = &now
	}
	return nil
}

func (s *memStore) Cancel(campaignID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.campaigns[campaignID]
	if !ok {
		return appErrors.NewCampaignNotFound(campaignID)
	}
	if c.Status.IsTerminal() {
		return appErrors.NewCampaignTerminal(campaignID, string(c.Status))
	}
	c.Status = model.CampaignCancelled
	return nil
}

// ====================== BatchRepositoryInterface ======================

func (s *memStore) GetBatch(id int) (*model.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (s *memStore) ListByCampaign(campaignID int) ([]*model.Batch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	batches := []*model.Batch{}
	for _, b := range s.batches {
		if b.CampaignID == campaignID {
			batches = append(batches, b)
		}
	}
	sort.Slice(batches, func(i, j int) bool { return batches[i].BatchIndex < batches[j].BatchIndex })
	return batches, nil
}

func (s *memStore) UpdateBatchStatus(batchID int, status model.BatchStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.batches[batchID]; ok {
		b.Status = status
	}
	return nil
}

func (s *memStore) SetJobID(batchID int, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.batches[batchID]; ok {
		b.JobID = jobID
	}
	return nil
}

func (s *memStore) AddBatchCounters(batchID, processed, success, failure int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.batches[batchID]; ok {
		b.Processed += processed
		b.SuccessCount += success
		b.FailureCount += failure
	}
	return nil
}

// batchRepoView adapts memStore to BatchRepositoryInterface; the campaign
// interface already claims GetByID/UpdateStatus/AddCounters on the store.
type batchRepoView struct{ s *memStore }

func (v batchRepoView) GetByID(id int) (*model.Batch, error) { return v.s.GetBatch(id) }
func (v batchRepoView) ListByCampaign(campaignID int) ([]*model.Batch, error) {
	return v.s.ListByCampaign(campaignID)
}
func (v batchRepoView) UpdateStatus(batchID int, status model.BatchStatus) error {
	return v.s.UpdateBatchStatus(batchID, status)
}
func (v batchRepoView) SetJobID(batchID int, jobID string) error { return v.s.SetJobID(batchID, jobID) }
func (v batchRepoView) AddCounters(batchID, processed, success, failure int) error {
	return v.s.AddBatchCounters(batchID, processed, success, failure)
}

// ====================== RecipientRepositoryInterface ======================

func (s *memStore) ListByBatch(batchID int) ([]*model.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recipients := []*model.Recipient{}
	for _, r := range s.recipients {
		if r.BatchID == batchID {
			cp := *r
			recipients = append(recipients, &cp)
		}
	}
	sort.Slice(recipients, func(i, j int) bool { return recipients[i].ID < recipients[j].ID })
	return recipients, nil
}

func (s *memStore) MarkResult(id int, status model.RecipientStatus, providerRef, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.recipients[id]; ok {
		r.Status = status
		r.ProviderRef = providerRef
		r.LastError = lastError
		r.AttemptCount++
	}
	return nil
}

func (s *memStore) GetByProviderRef(ref string) (*model.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipients {
		if r.ProviderRef == ref && ref != "" {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) TransitionByProviderRef(ref string, status model.RecipientStatus) (model.RecipientStatus, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recipients {
		if r.ProviderRef != ref || ref == "" {
			continue
		}
		if r.Status == status {
			return "", false, nil
		}
		prev := r.Status
		r.Status = status
		if status == model.RecipientDelivered && r.DeliveredAt == nil {
			now := time.Now()
			r.DeliveredAt = &now
		}
		return prev, true, nil
	}
	return "", false, nil
}

func (s *memStore) StatusHistogram(campaignID int) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := map[string]int{"queued": 0, "sending": 0, "sent": 0, "delivered": 0, "failed": 0}
	for _, r := range s.recipients {
		if r.CampaignID == campaignID {
			stats[string(r.Status)]++
		}
	}
	return stats, nil
}

// ====================== VoterRepositoryInterface ======================

func (s *memStore) GetVoter(id int) (*model.Voter, error) {
	for _, v := range s.voters {
		if v.ID == id {
			cp := v
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListByLGAs(lgas []string) ([]model.Voter, error) {
	want := map[string]bool{}
	for _, lga := range lgas {
		want[lga] = true
	}
	matched := []model.Voter{}
	for _, v := range s.voters {
		if want[v.LGA] && v.Phone != "" {
			matched = append(matched, v)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched, nil
}

type voterRepoView struct{ s *memStore }

func (v voterRepoView) GetByID(id int) (*model.Voter, error)          { return v.s.GetVoter(id) }
func (v voterRepoView) ListByLGAs(lgas []string) ([]model.Voter, error) { return v.s.ListByLGAs(lgas) }

// ====================== AudioAssetRepositoryInterface ======================

func (s *memStore) CreateAsset(a *model.AudioAsset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.id()
	a.CreatedAt = time.Now()
	s.assets[a.ID] = a
	return nil
}

func (s *memStore) GetAsset(id int) (*model.AudioAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ListAssets() ([]model.AudioAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assets := []model.AudioAsset{}
	for _, a := range s.assets {
		assets = append(assets, *a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].ID > assets[j].ID })
	return assets, nil
}

type audioRepoView struct{ s *memStore }

func (v audioRepoView) Create(a *model.AudioAsset) error          { return v.s.CreateAsset(a) }
func (v audioRepoView) GetByID(id int) (*model.AudioAsset, error) { return v.s.GetAsset(id) }
func (v audioRepoView) ListAll() ([]model.AudioAsset, error)      { return v.s.ListAssets() }

var _ repository.CampaignRepositoryInterface = (*memStore)(nil)
var _ repository.RecipientRepositoryInterface = (*memStore)(nil)
var _ repository.BatchRepositoryInterface = batchRepoView{}
var _ repository.VoterRepositoryInterface = voterRepoView{}
var _ repository.AudioAssetRepositoryInterface = audioRepoView{}
