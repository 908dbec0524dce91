package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/comitanigiacomo/blocktracker-engine/internal/core/badges"
	"github.com/comitanigiacomo/blocktracker-engine/internal/core/domain"
)

// TransferService moves the whole dataset in and out of the versioned JSON export document.
type TransferService struct {
	sessionRepo domain.SessionRepository
	badgeRepo   domain.BadgeRepository
	badges      *BadgeService
}

func NewTransferService(sessionRepo domain.SessionRepository, badgeRepo domain.BadgeRepository, badgeService *BadgeService) *TransferService {
	return &TransferService{
		sessionRepo: sessionRepo,
		badgeRepo:   badgeRepo,
		badges:      badgeService,
	}
}

func (s *TransferService) Export(ctx context.Context) (*domain.ExportDocument, error) {
	sessions, err := s.sessionRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExportFailed, err)
	}

	unlocked, err := s.badgeRepo.ListUnlocked(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExportFailed, err)
	}

	doc := &domain.ExportDocument{
		Version:    domain.ExportVersion,
		ExportDate: time.Now().UTC(),
		Data: domain.ExportPayload{
			Sessions:       make([]domain.SessionRecord, 0, len(sessions)),
			UnlockedBadges: make([]domain.UnlockedBadgeRecord, 0, len(unlocked)),
		},
	}

	for _, session := range sessions {
		rec := domain.SessionRecord{
			ID:        session.ID,
			StartDate: session.StartDate,
			EndDate:   session.EndDate,
			Blocs:     make([]domain.BlocRecord, 0, len(session.Blocs)),
		}
		for _, b := range session.Blocs {
			rec.Blocs = append(rec.Blocs, domain.BlocRecord{
				ID:        b.ID,
				Level:     b.Level,
				Completed: b.Completed,
				Attempts:  b.Attempts,
				Overhang:  b.Overhang,
				Date:      b.Date,
			})
		}
		doc.Data.Sessions = append(doc.Data.Sessions, rec)
	}

	for _, u := range unlocked {
		doc.Data.UnlockedBadges = append(doc.Data.UnlockedBadges, domain.UnlockedBadgeRecord{
			ID:         u.ID,
			BadgeID:    u.BadgeID,
			UnlockedAt: u.UnlockedAt,
		})
	}

	return doc, nil
}

func (s *TransferService) ExportJSON(ctx context.Context) ([]byte, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExportFailed, err)
	}
	return data, nil
}

// DecodeDocument parses and checks an export document without touching storage.
// Every key the export writes is required, except a session's endDate.
func DecodeDocument(data []byte) (*domain.ExportDocument, error) {
	var wire wireDocument
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidDocument, err)
	}

	if wire.Version == nil || *wire.Version == "" {
		return nil, missingKey("version")
	}
	if *wire.Version != domain.ExportVersion {
		return nil, fmt.Errorf("%w: got %q, want %q", domain.ErrIncompatibleVersion, *wire.Version, domain.ExportVersion)
	}

	return wire.toDocument()
}

func missingKey(path string) error {
	return fmt.Errorf("%w: missing %s", domain.ErrInvalidDocument, path)
}

// wire* types mirror the export document with pointer fields so that absent keys are detectable.
type wireDocument struct {
	Version    *string      `json:"version"`
	ExportDate *time.Time   `json:"exportDate"`
	Data       *wirePayload `json:"data"`
}

type wirePayload struct {
	Sessions       *[]wireSession `json:"sessions"`
	UnlockedBadges *[]wireUnlock  `json:"unlockedBadges"`
}

type wireSession struct {
	ID        *string     `json:"id"`
	StartDate *time.Time  `json:"startDate"`
	EndDate   *time.Time  `json:"endDate"`
	Blocs     *[]wireBloc `json:"blocs"`
}

type wireBloc struct {
	ID        *string    `json:"id"`
	Level     *int       `json:"level"`
	Completed *bool      `json:"completed"`
	Attempts  *int       `json:"attempts"`
	Overhang  *bool      `json:"overhang"`
	Date      *time.Time `json:"date"`
}

type wireUnlock struct {
	ID         *string    `json:"id"`
	BadgeID    *string    `json:"badgeId"`
	UnlockedAt *time.Time `json:"unlockedAt"`
}

func (w wireDocument) toDocument() (*domain.ExportDocument, error) {
	if w.ExportDate == nil {
		return nil, missingKey("exportDate")
	}
	if w.Data == nil {
		return nil, missingKey("data")
	}
	if w.Data.Sessions == nil {
		return nil, missingKey("data.sessions")
	}
	if w.Data.UnlockedBadges == nil {
		return nil, missingKey("data.unlockedBadges")
	}

	doc := &domain.ExportDocument{
		Version:    *w.Version,
		ExportDate: *w.ExportDate,
		Data: domain.ExportPayload{
			Sessions:       make([]domain.SessionRecord, 0, len(*w.Data.Sessions)),
			UnlockedBadges: make([]domain.UnlockedBadgeRecord, 0, len(*w.Data.UnlockedBadges)),
		},
	}

	for i, ws := range *w.Data.Sessions {
		rec, err := ws.toRecord(fmt.Sprintf("data.sessions[%d]", i))
		if err != nil {
			return nil, err
		}
		doc.Data.Sessions = append(doc.Data.Sessions, rec)
	}

	for i, wu := range *w.Data.UnlockedBadges {
		path := fmt.Sprintf("data.unlockedBadges[%d]", i)
		switch {
		case wu.ID == nil:
			return nil, missingKey(path + ".id")
		case wu.BadgeID == nil:
			return nil, missingKey(path + ".badgeId")
		case wu.UnlockedAt == nil:
			return nil, missingKey(path + ".unlockedAt")
		}
		doc.Data.UnlockedBadges = append(doc.Data.UnlockedBadges, domain.UnlockedBadgeRecord{
			ID:         *wu.ID,
			BadgeID:    *wu.BadgeID,
			UnlockedAt: *wu.UnlockedAt,
		})
	}

	return doc, nil
}

func (w wireSession) toRecord(path string) (domain.SessionRecord, error) {
	switch {
	case w.ID == nil:
		return domain.SessionRecord{}, missingKey(path + ".id")
	case w.StartDate == nil:
		return domain.SessionRecord{}, missingKey(path + ".startDate")
	case w.Blocs == nil:
		return domain.SessionRecord{}, missingKey(path + ".blocs")
	}

	rec := domain.SessionRecord{
		ID:        *w.ID,
		StartDate: *w.StartDate,
		EndDate:   w.EndDate,
		Blocs:     make([]domain.BlocRecord, 0, len(*w.Blocs)),
	}

	for i, wb := range *w.Blocs {
		bp := fmt.Sprintf("%s.blocs[%d]", path, i)
		switch {
		case wb.ID == nil:
			return domain.SessionRecord{}, missingKey(bp + ".id")
		case wb.Level == nil:
			return domain.SessionRecord{}, missingKey(bp + ".level")
		case wb.Completed == nil:
			return domain.SessionRecord{}, missingKey(bp + ".completed")
		case wb.Attempts == nil:
			return domain.SessionRecord{}, missingKey(bp + ".attempts")
		case wb.Overhang == nil:
			return domain.SessionRecord{}, missingKey(bp + ".overhang")
		case wb.Date == nil:
			return domain.SessionRecord{}, missingKey(bp + ".date")
		}
		rec.Blocs = append(rec.Blocs, domain.BlocRecord{
			ID:        *wb.ID,
			Level:     *wb.Level,
			Completed: *wb.Completed,
			Attempts:  *wb.Attempts,
			Overhang:  *wb.Overhang,
			Date:      *wb.Date,
		})
	}

	return rec, nil
}

// Import replaces every session and unlock record with the document content, then
// re-evaluates badges so that unlock state matches the imported sessions. Unlock dates of
// badges that are still earned are preserved.
func (s *TransferService) Import(ctx context.Context, data []byte) (*EvaluationResult, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}

	sessions, err := restoreSessions(doc.Data.Sessions)
	if err != nil {
		return nil, err
	}

	unlocked := restoreUnlocked(s.badges.Registry(), doc.Data.UnlockedBadges)

	if err := s.sessionRepo.ReplaceAll(ctx, sessions, unlocked); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrImportFailed, err)
	}

	sessionsImported.Add(float64(len(sessions)))
	log.Printf("[IMPORT] Restored %d sessions and %d unlock records", len(sessions), len(unlocked))

	return s.badges.Refresh(ctx)
}

func restoreSessions(records []domain.SessionRecord) ([]*domain.Session, error) {
	now := time.Now().UTC()
	seenSessions := make(map[string]struct{}, len(records))
	seenBlocs := make(map[string]struct{})
	sessions := make([]*domain.Session, 0, len(records))
	active := 0

	for i, rec := range records {
		id := rec.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, dup := seenSessions[id]; dup {
			return nil, fmt.Errorf("%w: duplicate session id %q", domain.ErrCorruptedData, id)
		}
		seenSessions[id] = struct{}{}

		if rec.StartDate.IsZero() {
			return nil, fmt.Errorf("%w: session %d has no start date", domain.ErrCorruptedData, i)
		}

		session := &domain.Session{
			ID:        id,
			StartDate: rec.StartDate.UTC(),
			Blocs:     make([]*domain.Bloc, 0, len(rec.Blocs)),
			CreatedAt: now,
			UpdatedAt: now,
		}

		if rec.EndDate == nil {
			active++
			if active > 1 {
				return nil, fmt.Errorf("%w: more than one session in progress", domain.ErrCorruptedData)
			}
		} else {
			if rec.EndDate.Before(rec.StartDate) {
				return nil, fmt.Errorf("%w: session %q ends before it starts", domain.ErrCorruptedData, id)
			}
			end := rec.EndDate.UTC()
			session.EndDate = &end
		}

		for _, br := range rec.Blocs {
			bloc, err := domain.NewBloc(id, br.Level, br.Completed, br.Attempts, br.Overhang)
			if err != nil {
				return nil, fmt.Errorf("%w: session %q: %w", domain.ErrCorruptedData, id, err)
			}
			if br.ID != "" {
				bloc.ID = br.ID
			}
			if _, dup := seenBlocs[bloc.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate bloc id %q", domain.ErrCorruptedData, bloc.ID)
			}
			seenBlocs[bloc.ID] = struct{}{}
			if !br.Date.IsZero() {
				bloc.Date = br.Date.UTC()
			}
			session.Blocs = append(session.Blocs, bloc)
		}

		sessions = append(sessions, session)
	}

	return sessions, nil
}

// restoreUnlocked keeps the first record of each registered badge id.
func restoreUnlocked(reg *badges.Registry, records []domain.UnlockedBadgeRecord) []*domain.UnlockedBadge {
	seen := make(map[string]struct{}, len(records))
	out := make([]*domain.UnlockedBadge, 0, len(records))

	for _, rec := range records {
		if _, ok := reg.Lookup(rec.BadgeID); !ok {
			log.Printf("[IMPORT] Skipping unknown badge %q", rec.BadgeID)
			continue
		}
		if _, dup := seen[rec.BadgeID]; dup {
			continue
		}
		seen[rec.BadgeID] = struct{}{}

		u := domain.NewUnlockedBadge(rec.BadgeID, rec.UnlockedAt)
		if rec.ID != "" {
			u.ID = rec.ID
		}
		if rec.UnlockedAt.IsZero() {
			u.UnlockedAt = time.Now().UTC()
		}
		out = append(out, u)
	}

	return out
}
