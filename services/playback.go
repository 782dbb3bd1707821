// services/playback.go
package services

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/wiz-rewards/wiz_api/dto"
	"github.com/wiz-rewards/wiz_api/shared"
)

// PlaybackSession is one viewing session of one video by one user. A reload
// starts a fresh session: milestone eligibility resets (accepted behavior),
// while the completion reward stays ledger-gated across sessions.
type PlaybackSession struct {
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	VideoID   string    `json:"video_id"`
	State     string    `json:"state"`
	Duration  int       `json:"duration"` // seconds, 0 when unknown
	Position  float64   `json:"position"` // furthest point reached

	LastMilestone int  `json:"last_milestone"`
	BonusGranted  bool `json:"bonus_granted"`
	WatchClaimed  bool `json:"watch_claimed"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (s *PlaybackSession) key() string {
	return sessionKey(s.UserID, s.VideoID, s.SessionID)
}

func sessionKey(userID, videoID, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", userID, videoID, sessionID)
}

// sessionStore holds live sessions. Abandoned sessions are never finalized,
// they just expire; milestone XP already granted is retained.
type sessionStore interface {
	Get(key string) (*PlaybackSession, bool, error)
	Put(session *PlaybackSession) error
}

const sessionTTL = 6 * time.Hour

// memorySessionStore is the single-instance default and the store tests run
// against.
type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*PlaybackSession
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: make(map[string]*PlaybackSession)}
}

func (st *memorySessionStore) Get(key string) (*PlaybackSession, bool, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	session, ok := st.sessions[key]
	if !ok || time.Since(session.UpdatedAt) > sessionTTL {
		return nil, false, nil
	}
	cp := *session
	return &cp, true, nil
}

func (st *memorySessionStore) Put(session *PlaybackSession) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) > 0 && len(st.sessions)%512 == 0 {
		st.sweepLocked()
	}

	cp := *session
	st.sessions[session.key()] = &cp
	return nil
}

func (st *memorySessionStore) sweepLocked() {
	for key, session := range st.sessions {
		if time.Since(session.UpdatedAt) > sessionTTL {
			delete(st.sessions, key)
		}
	}
}

// redisSessionStore keeps sessions shared across instances, expiring via TTL.
type redisSessionStore struct {
	redisSvc *RedisService
}

func (st *redisSessionStore) Get(key string) (*PlaybackSession, bool, error) {
	var session PlaybackSession
	found, err := st.redisSvc.GetJSON(context.Background(), "wiz:playback:"+key, &session)
	if err != nil || !found {
		return nil, false, err
	}
	return &session, true, nil
}

func (st *redisSessionStore) Put(session *PlaybackSession) error {
	return st.redisSvc.SetJSON(context.Background(), "wiz:playback:"+session.key(), session, sessionTTL)
}

// PlaybackService applies playback events to per-session state and invokes
// the award paths at the contract points: milestone ticks and the 90% bonus
// on progress, the fixed completion reward on ended.
type PlaybackService struct {
	appContext.DefaultService

	xpSvc     *XPService
	ledgerSvc *LedgerService
	metadata  VideoMetadataProvider

	store            sessionStore
	completionReward int
}

const PLAYBACK_SVC = "playback_svc"

func (svc PlaybackService) Id() string {
	return PLAYBACK_SVC
}

func (svc *PlaybackService) Configure(ctx *appContext.Context) error {
	svc.completionReward = shared.DefaultCompletionReward
	if v := os.Getenv("COMPLETION_REWARD"); v != "" {
		if reward, err := strconv.Atoi(v); err == nil && reward > 0 {
			svc.completionReward = reward
		}
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *PlaybackService) Start() error {
	svc.xpSvc = svc.Service(XP_SVC).(*XPService)
	svc.ledgerSvc = svc.Service(LEDGER_SVC).(*LedgerService)
	svc.store = &redisSessionStore{redisSvc: svc.Service(REDIS_SVC).(*RedisService)}

	if shared.UseYouTubeAPI() {
		svc.metadata = svc.Service(YOUTUBE_SVC).(*YouTubeService)
	} else {
		svc.metadata = svc.Service(LOCAL_METADATA_SVC).(*LocalMetadataService)
	}
	return nil
}

// SetDeps wires dependencies directly with an in-memory session store.
// Test hook.
func (svc *PlaybackService) SetDeps(xpSvc *XPService, ledgerSvc *LedgerService, metadata VideoMetadataProvider) {
	svc.xpSvc = xpSvc
	svc.ledgerSvc = ledgerSvc
	svc.metadata = metadata
	svc.store = newMemorySessionStore()
	if svc.completionReward == 0 {
		svc.completionReward = shared.DefaultCompletionReward
	}
}

// HandleEvent runs one playback event through the session state machine and
// returns the XP it was worth so the UI can update before the write settles.
func (svc *PlaybackService) HandleEvent(userID string, req dto.PlaybackEventRequest) (*dto.PlaybackEventResponse, error) {
	if userID == "" || req.VideoID == "" {
		// Missing preconditions are a no-op, never a playback-blocking error.
		return &dto.PlaybackEventResponse{State: shared.StateNotStarted}, nil
	}

	session, err := svc.loadSession(userID, req)
	if err != nil {
		log.Printf("Failed to load playback session for user %s video %s: %v", userID, req.VideoID, err)
		return &dto.PlaybackEventResponse{State: shared.StateNotStarted}, nil
	}

	resp := &dto.PlaybackEventResponse{State: session.State}
	if session.State == shared.StateEnded {
		// Terminal; late events carry no reward effects.
		resp.WatchSeconds = int(session.Position)
		return resp, nil
	}

	switch req.Type {
	case shared.EventProgress:
		svc.applyProgress(session, req, resp)
	case shared.EventPaused:
		if session.State == shared.StateWatching {
			session.State = shared.StatePaused
		}
	case shared.EventResumed:
		if session.State == shared.StatePaused {
			session.State = shared.StateWatching
		}
	case shared.EventEnded:
		svc.applyEnded(session, resp)
	}

	session.UpdatedAt = time.Now()
	if err := svc.store.Put(session); err != nil {
		log.Printf("Failed to persist playback session %s: %v", session.key(), err)
	}

	resp.State = session.State
	resp.WatchSeconds = int(session.Position)
	return resp, nil
}

func (svc *PlaybackService) loadSession(userID string, req dto.PlaybackEventRequest) (*PlaybackSession, error) {
	key := sessionKey(userID, req.VideoID, req.SessionID)
	session, found, err := svc.store.Get(key)
	if err != nil {
		return nil, err
	}
	if found {
		if session.Duration == 0 && req.Duration > 0 {
			session.Duration = int(req.Duration)
		}
		return session, nil
	}

	return &PlaybackSession{
		SessionID: req.SessionID,
		UserID:    userID,
		VideoID:   req.VideoID,
		State:     shared.StateNotStarted,
		Duration:  svc.resolveDuration(req),
		UpdatedAt: time.Now(),
	}, nil
}

// resolveDuration prefers provider metadata and falls back to the
// client-measured duration in local mode or when the API has no answer.
func (svc *PlaybackService) resolveDuration(req dto.PlaybackEventRequest) int {
	if svc.metadata != nil {
		if meta, err := svc.metadata.GetVideoMetadata(req.VideoID); err == nil && meta.Duration > 0 {
			return meta.Duration
		}
	}
	return int(req.Duration)
}

func (svc *PlaybackService) applyProgress(session *PlaybackSession, req dto.PlaybackEventRequest, resp *dto.PlaybackEventResponse) {
	session.State = shared.StateWatching
	if req.Position > session.Position {
		session.Position = req.Position
	}

	ticks, last := MilestonesCrossed(session.LastMilestone, session.Position, session.Duration)
	session.LastMilestone = last
	if ticks > 0 {
		granted := svc.xpSvc.Award(session.UserID, session.VideoID, shared.SourceMilestone, ticks*shared.XPMilestoneTick)
		resp.MilestoneTicks = ticks
		resp.XPGained += granted
	}

	if session.Duration <= 0 || session.BonusGranted {
		return
	}

	completionPct := session.Position / float64(session.Duration) * 100
	if completionPct < shared.CompletionBonusPct {
		return
	}
	if svc.ledgerSvc.IsCompleted(session.UserID, session.VideoID) {
		// Rewatch of an already-rewarded video: drip milestones only.
		session.BonusGranted = true
		return
	}

	bonus := CompletionBonus(session.Duration, int(session.Position))
	resp.XPGained += svc.xpSvc.Award(session.UserID, session.VideoID, shared.SourceCompletionBonus, bonus)
	resp.BonusGranted = true
	session.BonusGranted = true
}

// applyEnded runs the full completion path. The ledger insert is the gate:
// the reward is granted only when this call created the completion record,
// so two racing ended events cannot both pay out.
func (svc *PlaybackService) applyEnded(session *PlaybackSession, resp *dto.PlaybackEventResponse) {
	session.State = shared.StateEnded

	watchTime := int(session.Position)
	inserted, err := svc.ledgerSvc.MarkCompleted(session.UserID, session.VideoID, svc.completionReward, watchTime)
	if err != nil {
		log.Printf("Failed to mark completion for user %s video %s: %v", session.UserID, session.VideoID, err)
		return
	}
	if !inserted {
		return
	}

	resp.XPGained += svc.xpSvc.Award(session.UserID, session.VideoID, shared.SourceCompletion, svc.completionReward)
	resp.Completed = true
}

// ClaimWatchEngagement gates the one-per-session "started watching" reward:
// over 30 seconds into the session and not yet claimed.
func (svc *PlaybackService) ClaimWatchEngagement(userID, videoID, sessionID string) bool {
	session, found, err := svc.store.Get(sessionKey(userID, videoID, sessionID))
	if err != nil || !found {
		return false
	}
	if session.WatchClaimed || session.Position <= shared.WatchEngagementMinSeconds {
		return false
	}

	session.WatchClaimed = true
	session.UpdatedAt = time.Now()
	if err := svc.store.Put(session); err != nil {
		log.Printf("Failed to persist watch claim for session %s: %v", session.key(), err)
		return false
	}
	return true
}
