// Package dictionary implements the personal, global and shared dictionaries
// on top of the catalogue and the access policy.
package dictionary

import (
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/example/derbot/internal/access"
	"github.com/example/derbot/internal/apperr"
	"github.com/example/derbot/internal/catalogue"
	"github.com/example/derbot/internal/database"
	"github.com/example/derbot/internal/rating"
	"github.com/example/derbot/pkg/models"
)

const (
	MinNameLength = 3
	MaxNameLength = 30

	// DefaultSampleWindow bounds random scans of the catalogue.
	DefaultSampleWindow = 20

	codeAttempts = 10
)

type Options struct {
	// SampleWindow is the number of rows fetched before random selection.
	SampleWindow int
	// CodeSource overrides crypto/rand for access codes.
	CodeSource io.Reader
}

type Service struct {
	store     *database.Store
	catalogue *catalogue.Catalogue
	policy    access.Policy
	opts      Options
}

func New(store *database.Store, cat *catalogue.Catalogue, policy access.Policy, opts Options) *Service {
	if opts.SampleWindow <= 0 {
		opts.SampleWindow = DefaultSampleWindow
	}
	return &Service{store: store, catalogue: cat, policy: policy, opts: opts}
}

// Policy returns the access policy the service enforces.
func (s *Service) Policy() access.Policy {
	return s.policy
}

func membership(ctx context.Context, tx *database.Store, scope models.Scope) (*access.Membership, error) {
	if scope.Flavour != models.FlavourShared {
		return nil, nil
	}
	m, err := tx.Shared.Member(ctx, scope.UserID, scope.SharedID)
	if apperr.Is(err, apperr.NotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &access.Membership{IsAdmin: m.IsAdmin}, nil
}

func (s *Service) authorize(ctx context.Context, tx *database.Store, scope models.Scope, want access.Capability) error {
	m, err := membership(ctx, tx, scope)
	if err != nil {
		return err
	}
	if !s.policy.Capabilities(scope.UserID, scope, m).Has(want) {
		return apperr.New(apperr.PermissionDenied, nil, "user %d lacks access to %s", scope.UserID, scope)
	}
	return nil
}

// CanWrite reports whether the scope's user may modify its dictionary.
func (s *Service) CanWrite(ctx context.Context, scope models.Scope) (bool, error) {
	err := s.authorize(ctx, s.store, scope, access.Write)
	if apperr.Is(err, apperr.PermissionDenied) {
		return false, nil
	}
	return err == nil, err
}

// ListWords returns the words of the dictionary with their ratings, lowest
// rating first.
func (s *Service) ListWords(ctx context.Context, scope models.Scope, lang models.Language) ([]models.Entry, error) {
	if err := s.authorize(ctx, s.store, scope, access.List); err != nil {
		return nil, err
	}
	switch scope.Flavour {
	case models.FlavourGlobal:
		return s.store.Global.List(ctx, scope.UserID, lang)
	case models.FlavourShared:
		return s.store.Shared.ListWords(ctx, scope.SharedID, lang)
	}
	return s.store.Personal.List(ctx, scope.UserID, lang)
}

// AddWord registers headword in the catalogue and links it to the
// dictionary. It reports whether the dictionary gained a word; adding a word
// twice is a no-op apart from enriching the catalogue. A new membership
// keeps the typed translation when the catalogue already has another one.
func (s *Service) AddWord(ctx context.Context, scope models.Scope, headword, translation string, lang models.Language, article string) (int64, bool, error) {
	if strings.TrimSpace(headword) == "" {
		return 0, false, apperr.New(apperr.Validation, nil, "empty headword")
	}

	var (
		id      int64
		created bool
	)
	err := s.store.WithinTx(ctx, func(tx *database.Store) error {
		if err := s.authorize(ctx, tx, scope, access.Write); err != nil {
			return err
		}
		var err error
		id, err = s.catalogue.With(tx).AddOrMerge(ctx, headword, translation, lang, article)
		if err != nil {
			return err
		}
		switch scope.Flavour {
		case models.FlavourPersonal:
			created, err = tx.Personal.Add(ctx, scope.UserID, id)
		case models.FlavourShared:
			created, err = tx.Shared.AddWord(ctx, scope.SharedID, id)
		default:
			created = true
			return nil
		}
		if err != nil || !created {
			return err
		}
		return keepTranslation(ctx, tx, scope, id, lang, translation)
	})
	if err != nil {
		return 0, false, err
	}
	return id, created, nil
}

// keepTranslation stores translation as the membership's override when the
// catalogue already holds a different one, so the learner sees what they
// typed.
func keepTranslation(ctx context.Context, tx *database.Store, scope models.Scope, wordID int64, lang models.Language, translation string) error {
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return nil
	}
	w, err := tx.Words.GetByID(ctx, wordID)
	if err != nil {
		return err
	}
	if w.Translation(lang) == translation {
		return nil
	}
	if scope.Flavour == models.FlavourShared {
		return tx.Shared.SetTranslation(ctx, scope.SharedID, wordID, translation)
	}
	return tx.Personal.SetTranslation(ctx, scope.UserID, wordID, translation)
}

// RemoveWord unlinks a word from the dictionary. Catalogue entries are never
// deleted: removing from the global dictionary clears the translation into
// lang, which hides the word from global listings in that language.
func (s *Service) RemoveWord(ctx context.Context, scope models.Scope, wordID int64, lang models.Language) error {
	return s.store.WithinTx(ctx, func(tx *database.Store) error {
		if err := s.authorize(ctx, tx, scope, access.Write); err != nil {
			return err
		}
		switch scope.Flavour {
		case models.FlavourPersonal:
			return tx.Personal.Remove(ctx, scope.UserID, wordID)
		case models.FlavourShared:
			return tx.Shared.RemoveWord(ctx, scope.SharedID, wordID)
		}
		return s.catalogue.With(tx).SetTranslation(ctx, wordID, lang, "")
	})
}

// UpdateTranslation changes the translation shown for a word. Personal and
// shared dictionaries keep their own override; the global dictionary edits
// the catalogue.
func (s *Service) UpdateTranslation(ctx context.Context, scope models.Scope, wordID int64, lang models.Language, translation string) error {
	translation = strings.TrimSpace(translation)
	if translation == "" {
		return apperr.New(apperr.Validation, nil, "empty translation")
	}
	return s.store.WithinTx(ctx, func(tx *database.Store) error {
		if err := s.authorize(ctx, tx, scope, access.Write); err != nil {
			return err
		}
		switch scope.Flavour {
		case models.FlavourPersonal:
			return tx.Personal.SetTranslation(ctx, scope.UserID, wordID, translation)
		case models.FlavourShared:
			return tx.Shared.SetTranslation(ctx, scope.SharedID, wordID, translation)
		}
		return s.catalogue.With(tx).SetTranslation(ctx, wordID, lang, translation)
	})
}

// CreateShared creates a shared dictionary owned by userID, who becomes its
// first admin member.
func (s *Service) CreateShared(ctx context.Context, userID int64, name string) (*models.SharedDictionary, error) {
	name = strings.Join(strings.Fields(name), " ")
	if n := utf8.RuneCountInString(name); n < MinNameLength || n > MaxNameLength {
		return nil, apperr.New(apperr.Validation, nil, "name must have %d to %d characters", MinNameLength, MaxNameLength)
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := NewCode(s.opts.CodeSource)
		if err != nil {
			return nil, apperr.New(apperr.Internal, err, "failed to generate code")
		}
		d := &models.SharedDictionary{Name: name, Code: code, CreatorID: userID}
		err = s.store.WithinTx(ctx, func(tx *database.Store) error {
			if err := tx.Shared.Create(ctx, d); err != nil {
				return err
			}
			return tx.Shared.AddMember(ctx, models.SharedMembership{UserID: userID, DictID: d.ID, IsAdmin: true})
		})
		if apperr.Is(err, apperr.Conflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return d, nil
	}
	return nil, apperr.New(apperr.Internal, nil, "no free code after %d attempts", codeAttempts)
}

// JoinShared makes userID a regular member of the dictionary with the given
// code. Unknown codes are NotFound, existing members get Conflict.
func (s *Service) JoinShared(ctx context.Context, userID int64, code string) (*models.SharedDictionary, error) {
	code, ok := NormalizeCode(code)
	if !ok {
		return nil, apperr.New(apperr.Validation, nil, "malformed code %q", code)
	}

	var d *models.SharedDictionary
	err := s.store.WithinTx(ctx, func(tx *database.Store) error {
		var err error
		d, err = tx.Shared.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		return tx.Shared.AddMember(ctx, models.SharedMembership{UserID: userID, DictID: d.ID})
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

// LeaveShared removes userID from a shared dictionary. The creator cannot
// leave.
func (s *Service) LeaveShared(ctx context.Context, userID, dictID int64) error {
	return s.store.WithinTx(ctx, func(tx *database.Store) error {
		d, err := tx.Shared.GetByID(ctx, dictID)
		if err != nil {
			return err
		}
		if d.CreatorID == userID {
			return apperr.New(apperr.Validation, nil, "creator cannot leave %q", d.Name)
		}
		if err := tx.Shared.RemoveMember(ctx, userID, dictID); err != nil {
			return err
		}
		return tx.Users.ClearSharedSelection(ctx, userID, dictID)
	})
}

// SharedOf lists the shared dictionaries userID belongs to.
func (s *Service) SharedOf(ctx context.Context, userID int64) ([]models.SharedDictionary, error) {
	return s.store.Shared.GetAllByUserID(ctx, userID)
}

// Shared returns one shared dictionary.
func (s *Service) Shared(ctx context.Context, dictID int64) (*models.SharedDictionary, error) {
	return s.store.Shared.GetByID(ctx, dictID)
}

// Select makes scope the user's current dictionary.
func (s *Service) Select(ctx context.Context, user *models.User, scope models.Scope) error {
	scope.UserID = user.ID
	return s.store.WithinTx(ctx, func(tx *database.Store) error {
		if err := s.authorize(ctx, tx, scope, access.Read); err != nil {
			return err
		}
		user.Flavour = scope.Flavour
		user.SharedDictID.Valid = scope.Flavour == models.FlavourShared
		user.SharedDictID.Int64 = scope.SharedID
		return tx.Users.Update(ctx, user)
	})
}

// AdjustRating applies delta to the rating of a word in the dictionary and
// returns the new rating. Personal rows are created on first encounter.
func (s *Service) AdjustRating(ctx context.Context, scope models.Scope, wordID int64, delta float64) (float64, error) {
	var next float64
	err := s.store.WithinTx(ctx, func(tx *database.Store) error {
		var (
			current float64
			err     error
		)
		switch scope.Flavour {
		case models.FlavourPersonal:
			current, err = tx.Personal.Rating(ctx, scope.UserID, wordID)
			if apperr.Is(err, apperr.NotFound) {
				current, err = 0, nil
				if _, err = tx.Personal.Add(ctx, scope.UserID, wordID); err != nil {
					return err
				}
			}
		case models.FlavourShared:
			current, err = tx.Shared.Rating(ctx, scope.SharedID, wordID)
		default:
			current, err = tx.Global.Rating(ctx, scope.UserID, wordID)
		}
		if err != nil {
			return err
		}

		next = rating.Apply(current, delta)
		switch scope.Flavour {
		case models.FlavourPersonal:
			return tx.Personal.SetRating(ctx, scope.UserID, wordID, next)
		case models.FlavourShared:
			return tx.Shared.SetRating(ctx, scope.SharedID, wordID, next)
		}
		return tx.Global.SetRating(ctx, scope.UserID, wordID, next)
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Fillers returns up to n distinct random catalogue translations into lang,
// skipping the excluded words and the translations in skip.
func (s *Service) Fillers(ctx context.Context, lang models.Language, exclude []int64, skip []string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.store.Words.GetRandomTranslations(ctx, lang, exclude, s.opts.SampleWindow)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(skip))
	for _, t := range skip {
		seen[strings.ToLower(t)] = true
	}
	out := make([]string, 0, n)
	for _, t := range rows {
		if len(out) == n {
			break
		}
		if seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out, nil
}

// Stats summarises the ratings of the dictionary.
func (s *Service) Stats(ctx context.Context, scope models.Scope, lang models.Language) (*models.DictionaryStats, error) {
	if err := s.authorize(ctx, s.store, scope, access.Read); err != nil {
		return nil, err
	}
	return s.store.Stats.ForScope(ctx, scope, lang)
}
