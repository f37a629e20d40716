// Package memory реализует хранилище в памяти процесса. Используется в окружении
// local без PostgreSQL и в тестах сервисов. Все операции атомарны относительно
// одного мьютекса, поэтому снимок никогда не содержит половину изменения.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/betting-rank/internal/models"
	"github.com/magabrotheeeer/betting-rank/internal/storage"
)

type competition struct {
	models.Competition
	members   map[string]struct{}
	announced bool
}

// Storage хранилище пользователей, соревнований и расчётов в памяти.
type Storage struct {
	mu           sync.RWMutex
	users        map[string]*models.User
	byUsername   map[string]string
	byEmail      map[string]string
	competitions map[string]*competition
	settled      map[string]struct{}
	seq          int64
	epoch        string
	version      int64
}

// New создаёт пустое хранилище.
func New() *Storage {
	return &Storage{
		users:        make(map[string]*models.User),
		byUsername:   make(map[string]string),
		byEmail:      make(map[string]string),
		competitions: make(map[string]*competition),
		settled:      make(map[string]struct{}),
		epoch:        uuid.NewString(),
	}
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

// CreateUser сохраняет пользователя и присваивает ему порядковый номер регистрации.
func (s *Storage) CreateUser(ctx context.Context, user models.User) (*models.User, error) {
	const op = "storage.memory.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := s.byUsername[user.Username]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if _, ok := s.byEmail[email]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}
	if _, ok := s.users[user.ID]; ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
	}

	s.seq++
	s.version++
	u := user
	u.Email = email
	u.Seq = s.seq
	s.users[u.ID] = &u
	s.byUsername[u.Username] = u.ID
	s.byEmail[email] = u.ID

	created := u
	return &created, nil
}

// GetUser возвращает копию пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.memory.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	res := *u
	return &res, nil
}

// GetUserByUsername возвращает копию пользователя по имени.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.memory.GetUserByUsername"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	res := *s.users[id]
	return &res, nil
}

// ApplySettlement учитывает расчёт ставки. Повторный BetID игнорируется, applied=false.
func (s *Storage) ApplySettlement(ctx context.Context, st models.Settlement) (bool, error) {
	const op = "storage.memory.ApplySettlement"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[st.UserID]
	if !ok {
		return false, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if _, dup := s.settled[st.BetID]; dup {
		return false, nil
	}
	s.settled[st.BetID] = struct{}{}

	u.TotalBets++
	if st.Won {
		u.WonBets++
	} else {
		u.LostBets++
	}
	u.TotalAmount += st.Stake
	u.TotalWinnings += st.Payout
	s.version++
	return true, nil
}

// DisableUser помечает пользователя отключённым.
func (s *Storage) DisableUser(ctx context.Context, id string) error {
	const op = "storage.memory.DisableUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if !u.Disabled {
		u.Disabled = true
		s.version++
	}
	return nil
}

// Version возвращает текущую версию учётных записей.
func (s *Storage) Version(ctx context.Context) (models.Version, error) {
	const op = "storage.memory.Version"
	if err := checkCtx(ctx, op); err != nil {
		return models.Version{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.Version{Epoch: s.epoch, Seq: s.version}, nil
}

// Snapshot копирует всех пользователей под одной блокировкой чтения.
func (s *Storage) Snapshot(ctx context.Context) (*models.Snapshot, error) {
	const op = "storage.memory.Snapshot"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Seq < users[j].Seq })
	return &models.Snapshot{Version: models.Version{Epoch: s.epoch, Seq: s.version}, Users: users}, nil
}

// UpsertCompetition создаёт соревнование или обновляет его описание, не трогая участников.
func (s *Storage) UpsertCompetition(ctx context.Context, c models.Competition) error {
	const op = "storage.memory.UpsertCompetition"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.competitions[c.ID]; ok {
		existing.Name = c.Name
		existing.Description = c.Description
		existing.Region = c.Region
		existing.PrizePool = c.PrizePool
		existing.EndsAt = c.EndsAt
		return nil
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.competitions[c.ID] = &competition{
		Competition: c,
		members:     make(map[string]struct{}),
	}
	return nil
}

// ListCompetitions возвращает соревнования в порядке создания.
func (s *Storage) ListCompetitions(ctx context.Context) ([]models.Competition, error) {
	const op = "storage.memory.ListCompetitions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Competition, 0, len(s.competitions))
	for _, c := range s.competitions {
		item := c.Competition
		item.MembersCount = int64(len(c.members))
		res = append(res, item)
	}
	sortCompetitions(res)
	return res, nil
}

// AddMember добавляет участника, если его ещё нет и соревнование открыто на момент now.
func (s *Storage) AddMember(ctx context.Context, competitionID, userID string, now time.Time) error {
	const op = "storage.memory.AddMember"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.competitions[competitionID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrCompetitionNotFound)
	}
	if _, ok := s.users[userID]; !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if c.ClosedAt(now) {
		return fmt.Errorf("%s: %w", op, storage.ErrCompetitionClosed)
	}
	if _, ok := c.members[userID]; ok {
		return fmt.Errorf("%s: %w", op, storage.ErrAlreadyMember)
	}
	c.members[userID] = struct{}{}
	return nil
}

// ClosedUnannounced возвращает закрытые к моменту now соревнования, о которых ещё не сообщали.
func (s *Storage) ClosedUnannounced(ctx context.Context, now time.Time) ([]models.Competition, error) {
	const op = "storage.memory.ClosedUnannounced"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []models.Competition
	for _, c := range s.competitions {
		if c.announced || !c.ClosedAt(now) {
			continue
		}
		item := c.Competition
		item.MembersCount = int64(len(c.members))
		res = append(res, item)
	}
	sortCompetitions(res)
	return res, nil
}

// MarkAnnounced отмечает, что о закрытии соревнования уже сообщено.
func (s *Storage) MarkAnnounced(ctx context.Context, competitionID string) error {
	const op = "storage.memory.MarkAnnounced"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.competitions[competitionID]
	if !ok {
		return fmt.Errorf("%s: %w", op, storage.ErrCompetitionNotFound)
	}
	c.announced = true
	return nil
}

func sortCompetitions(list []models.Competition) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
