package server

import (
	"context"
	"presidente-server/internal/database"
	"presidente-server/internal/presidente"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	maxPlayerNameLength = 20
	maxRoomNameLength   = 40
	archiveTimeout      = 5 * time.Second
)

// Notifier delivers events to connections. Calls are fire-and-forget.
type Notifier interface {
	AddToRoom(connectionId, roomId string)
	RemoveFromRoom(connectionId, roomId string)
	BroadcastToRoom(roomId, event string, payload any)
	SendToConnection(connectionId, event string, payload any)
}

// ResultStore archives finished games.
type ResultStore interface {
	SaveGameResult(ctx context.Context, result database.GameResult) error
}

// GameManager maps inbound actions onto rooms and the rule engine. Room state
// is only touched under the room lock. Events are delivered after the lock is
// released, in the order the room applied them.
type GameManager struct {
	rooms         *RoomManager
	notifier      Notifier
	results       ResultStore
	logger        *zap.Logger
	exchangeDelay time.Duration
}

type GameManagerOption func(*GameManager)

func WithResultStore(store ResultStore) GameManagerOption {
	return func(gm *GameManager) {
		gm.results = store
	}
}

func WithExchangeDelay(d time.Duration) GameManagerOption {
	return func(gm *GameManager) {
		gm.exchangeDelay = d
	}
}

func NewGameManager(rooms *RoomManager, notifier Notifier, logger *zap.Logger, opts ...GameManagerOption) *GameManager {
	gm := &GameManager{
		rooms:    rooms,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(gm)
	}
	return gm
}

func (gm *GameManager) CreateRoom(connectionId, roomName string) (CreateRoomResponse, error) {
	name, err := validateRoomName(roomName)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	if gm.rooms.FindRoomByConnection(connectionId) != nil {
		return CreateRoomResponse{}, ErrAlreadyInRoom
	}

	room, err := gm.rooms.CreateRoom(name, connectionId)
	if err != nil {
		return CreateRoomResponse{}, err
	}

	gm.notifier.AddToRoom(connectionId, room.Id)

	gm.logger.Info("room created",
		zap.String("room", room.Id),
		zap.String("conn", connectionId),
		zap.String("name", name))

	return CreateRoomResponse{RoomId: room.Id, RoomName: room.Name}, nil
}

// JoinRoom seats the connection in the room. Joining a room the connection
// already sits in only re-sends the room state.
func (gm *GameManager) JoinRoom(connectionId, roomCode, playerName string) (JoinRoomResponse, error) {
	code := NormalizeRoomCode(roomCode)
	if err := ValidateRoomCode(code); err != nil {
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	name, err := ValidatePlayerName(playerName)
	if err != nil {
		return JoinRoomResponse{}, err
	}

	room, ok := gm.rooms.GetRoom(code)
	if !ok {
		return JoinRoomResponse{}, ErrRoomNotFound
	}

	if other := gm.rooms.FindRoomByConnection(connectionId); other != nil && other != room {
		return JoinRoomResponse{}, ErrAlreadyInRoom
	}

	var resp JoinRoomResponse

	err = gm.apply(context.Background(), room, func(out *outbox) error {
		state := room.State

		if existing := state.PlayerByConnection(connectionId); existing != nil {
			out.send(connectionId, EventRoomState, roomStateFor(room, connectionId))
			resp = JoinRoomResponse{RoomId: room.Id, RoomName: room.Name, PlayerId: existing.Id}
			return nil
		}

		if len(state.Players) >= presidente.MaxPlayers {
			return ErrRoomFull
		}
		if state.Phase == presidente.PhaseCardExchange || state.Phase == presidente.PhasePlaying {
			return ErrGameInProgress
		}

		if room.CreatorConnectionId == "" {
			room.CreatorConnectionId = connectionId
		}
		player := presidente.NewPlayer(connectionId, name, room.CreatorConnectionId == connectionId)
		state.HandlePlayerJoinAfterFirstGame(player)
		state.Players = append(state.Players, player)
		room.touch(gm.rooms.now())

		out.join(connectionId, room.Id)
		out.broadcast(room.Id, EventPlayerJoined, PlayerJoinedEvent{
			Player:       presidente.GetPublicPlayer(player),
			TotalPlayers: len(state.Players),
		})
		out.send(connectionId, EventRoomState, roomStateFor(room, connectionId))

		resp = JoinRoomResponse{RoomId: room.Id, RoomName: room.Name, PlayerId: player.Id}
		return nil
	})
	if err != nil {
		return JoinRoomResponse{}, err
	}

	gm.logger.Info("player joined",
		zap.String("room", room.Id),
		zap.String("conn", connectionId),
		zap.String("player", resp.PlayerId))

	return resp, nil
}

func (gm *GameManager) StartGame(ctx context.Context, connectionId string) (StartGameResponse, error) {
	room, err := gm.roomFor(connectionId)
	if err != nil {
		return StartGameResponse{}, err
	}

	var resp StartGameResponse

	err = gm.apply(ctx, room, func(out *outbox) error {
		if room.State.PlayerByConnection(connectionId) == nil {
			return ErrNotInRoom
		}
		if room.CreatorConnectionId != connectionId {
			return ErrNotCreator
		}
		if !room.State.CanStart() {
			return ErrCannotStartYet
		}

		exchanges := room.State.StartGame()
		room.touch(gm.rooms.now())
		gm.queueGameStart(out, room, exchanges)

		resp = StartGameResponse{GameNumber: room.State.GameNumber}
		return nil
	})
	if err != nil {
		return StartGameResponse{}, err
	}

	gm.logger.Info("game started",
		zap.String("room", room.Id),
		zap.Int("game", resp.GameNumber))

	return resp, nil
}

// StartNextGame deals again once a game has finished, keeping standings so
// the exchange runs before play. When too few players remain the room still
// returns to the lobby and everyone gets the refreshed room state.
func (gm *GameManager) StartNextGame(ctx context.Context, connectionId string) (StartGameResponse, error) {
	room, err := gm.roomFor(connectionId)
	if err != nil {
		return StartGameResponse{}, err
	}

	var resp StartGameResponse

	err = gm.apply(ctx, room, func(out *outbox) error {
		if room.State.PlayerByConnection(connectionId) == nil {
			return ErrNotInRoom
		}
		if room.CreatorConnectionId != connectionId {
			return ErrNotCreator
		}
		if room.State.Phase != presidente.PhaseGameFinished {
			return ErrGameNotFinishedYet
		}

		room.State.PrepareNextGame()
		room.touch(gm.rooms.now())
		if !room.State.CanStart() {
			queueRoomState(out, room)
			return ErrCannotStartYet
		}

		exchanges := room.State.StartGame()
		gm.queueGameStart(out, room, exchanges)

		resp = StartGameResponse{GameNumber: room.State.GameNumber}
		return nil
	})
	if err != nil {
		return StartGameResponse{}, err
	}

	gm.logger.Info("next game started",
		zap.String("room", room.Id),
		zap.Int("game", resp.GameNumber))

	return resp, nil
}

func (gm *GameManager) PlayCards(connectionId string, cardIds []string) (PlayCardsResponse, error) {
	room, err := gm.roomFor(connectionId)
	if err != nil {
		return PlayCardsResponse{}, err
	}

	var (
		resp   PlayCardsResponse
		result *database.GameResult
	)

	err = gm.apply(context.Background(), room, func(out *outbox) error {
		state := room.State
		player := state.PlayerByConnection(connectionId)
		if player == nil {
			return ErrNotInRoom
		}

		if err := state.ValidatePlay(player, cardIds); err != nil {
			return err
		}

		outcome := state.ExecutePlay(player, cardIds)
		room.touch(gm.rooms.now())

		out.broadcast(room.Id, EventPlayerPlayed, PlayerPlayedEvent{
			PlayerId:        player.Id,
			PlayerName:      player.Name,
			Cards:           outcome.Play.Cards,
			PlayType:        outcome.Play.Type,
			PlayerCardCount: len(player.Hand),
			CurrentPlayer:   presidente.RefOf(state.CurrentPlayer()),
			Phase:           state.Phase,
		})

		if outcome.PlayerFinished {
			out.broadcast(room.Id, EventPlayerFinished, PlayerFinishedEvent{
				PlayerId:   player.Id,
				PlayerName: player.Name,
				Position:   player.FinishPosition,
			})
		}

		switch {
		case outcome.GameFinished:
			result = gm.queueGameFinished(out, room)
		case outcome.RoundEnded:
			out.broadcast(room.Id, EventNewRound, NewRoundEvent{
				WinnerId:      state.RoundWinnerId,
				CurrentPlayer: presidente.RefOf(state.CurrentPlayer()),
			})
		}

		resp = PlayCardsResponse{RemainingCards: len(player.Hand)}
		return nil
	})
	if err != nil {
		return PlayCardsResponse{}, err
	}

	gm.archive(result)

	return resp, nil
}

func (gm *GameManager) Pass(connectionId string) (PassResponse, error) {
	room, err := gm.roomFor(connectionId)
	if err != nil {
		return PassResponse{}, err
	}

	var resp PassResponse

	err = gm.apply(context.Background(), room, func(out *outbox) error {
		state := room.State
		player := state.PlayerByConnection(connectionId)
		if player == nil {
			return ErrNotInRoom
		}

		if err := state.ValidatePass(player); err != nil {
			return err
		}

		outcome := state.ExecutePass()
		room.touch(gm.rooms.now())

		out.broadcast(room.Id, EventPlayerPassed, PlayerPassedEvent{
			PlayerId:      player.Id,
			PlayerName:    player.Name,
			CurrentPlayer: presidente.RefOf(state.CurrentPlayer()),
		})

		if outcome.RoundEnded {
			out.broadcast(room.Id, EventNewRound, NewRoundEvent{
				WinnerId:      outcome.WinnerId,
				CurrentPlayer: presidente.RefOf(state.CurrentPlayer()),
			})
		}

		resp = PassResponse{RoundEnded: outcome.RoundEnded}
		return nil
	})
	if err != nil {
		return PassResponse{}, err
	}

	return resp, nil
}

// Disconnect removes the connection's player from its room. The creator role
// moves to the next seated player, a game left with one active player ends,
// and an emptied room is dropped from the registry. A creator that never took
// a seat hands its rooms over the same way.
func (gm *GameManager) Disconnect(connectionId string) {
	for _, created := range gm.rooms.RoomsAwaitingCreator(connectionId) {
		gm.abandonRoom(created, connectionId)
	}

	room := gm.rooms.FindRoomByConnection(connectionId)
	if room == nil {
		return
	}

	var (
		result  *database.GameResult
		removed *presidente.Player
		empty   bool
	)

	err := gm.apply(context.Background(), room, func(out *outbox) error {
		state := room.State

		removed = state.RemovePlayer(connectionId)
		if removed == nil {
			return nil
		}
		room.touch(gm.rooms.now())

		event := PlayerLeftEvent{
			PlayerId:         removed.Id,
			PlayerName:       removed.Name,
			RemainingPlayers: len(state.Players),
		}

		if removed.IsRoomCreator || room.CreatorConnectionId == connectionId {
			if next := room.promoteNewCreator(); next != nil {
				event.NewCreatorId = next.Id
			}
		}

		if state.Phase == presidente.PhasePlaying {
			event.CurrentPlayer = presidente.RefOf(state.CurrentPlayer())
		}

		out.leave(connectionId, room.Id)
		out.broadcast(room.Id, EventPlayerLeft, event)

		if state.FinishIfDone() {
			result = gm.queueGameFinished(out, room)
		}

		empty = len(state.Players) == 0
		return nil
	})
	if err != nil || removed == nil {
		return
	}

	gm.archive(result)

	gm.logger.Info("player left",
		zap.String("room", room.Id),
		zap.String("conn", connectionId),
		zap.String("player", removed.Id))

	if empty && gm.rooms.RemoveRoomIfEmpty(room.Id) {
		gm.logger.Info("room removed", zap.String("room", room.Id))
	}
}

// CleanupInactive drops rooms idle past threshold and tells anyone still
// seated in them.
func (gm *GameManager) CleanupInactive(threshold time.Duration) []string {
	closed := gm.rooms.CleanupInactive(threshold)

	codes := make([]string, 0, len(closed))
	for _, room := range closed {
		// The room is closed, so no later ticket can be issued for it.
		room.mu.Lock()
		ticket := room.ticket()
		room.mu.Unlock()

		done := room.awaitDelivery(ticket)
		gm.notifier.BroadcastToRoom(room.Id, EventRoomClosed, RoomClosedEvent{RoomId: room.Id, Reason: "inactive"})
		done()

		gm.logger.Info("inactive room removed", zap.String("room", room.Id))
		codes = append(codes, room.Id)
	}

	return codes
}

// abandonRoom drops an unseated creator from a room it created. Seated
// players inherit the creator role; a room nobody sits in is removed.
func (gm *GameManager) abandonRoom(room *Room, connectionId string) {
	var (
		next  *presidente.Player
		empty bool
	)

	err := gm.apply(context.Background(), room, func(out *outbox) error {
		if room.CreatorConnectionId != connectionId || room.State.PlayerByConnection(connectionId) != nil {
			return nil
		}

		out.leave(connectionId, room.Id)
		next = room.promoteNewCreator()
		if next == nil {
			empty = true
			return nil
		}
		queueRoomState(out, room)
		return nil
	})
	if err != nil {
		return
	}

	if next != nil {
		gm.logger.Info("creator handed over",
			zap.String("room", room.Id),
			zap.String("conn", connectionId),
			zap.String("player", next.Id))
	}

	if empty && gm.rooms.RemoveRoomIfEmpty(room.Id) {
		gm.logger.Info("room removed", zap.String("room", room.Id))
	}
}

// apply runs fn under the room lock and then delivers what it queued, even
// when fn fails after queueing. Each room delivers outboxes one at a time in
// the order their changes were applied.
func (gm *GameManager) apply(ctx context.Context, room *Room, fn func(out *outbox) error) error {
	var (
		out    outbox
		ticket uint64
		queued bool
	)

	err := room.do(func() error {
		err := fn(&out)
		if len(out.steps) > 0 {
			ticket = room.ticket()
			queued = true
		}
		return err
	})

	if queued {
		done := room.awaitDelivery(ticket)
		defer done()
		gm.flush(ctx, &out)
	}

	return err
}

func (gm *GameManager) roomFor(connectionId string) (*Room, error) {
	room := gm.rooms.FindRoomByConnection(connectionId)
	if room == nil {
		return nil, ErrNotInRoom
	}
	return room, nil
}

// queueGameStart must be called with the room lock held.
func (gm *GameManager) queueGameStart(out *outbox, room *Room, exchanges []presidente.Exchange) {
	state := room.State

	if !state.IsFirstGame {
		out.broadcast(room.Id, EventCardExchangeStarted, CardExchangeStartedEvent{
			Exchanges: presidente.ExchangeViews(exchanges),
		})
		out.pause(gm.exchangeDelay)
		out.broadcast(room.Id, EventCardExchangeCompleted, CardExchangeCompletedEvent{
			GameNumber: state.GameNumber,
		})
	}

	for _, p := range state.Players {
		out.send(p.ConnectionId, EventGameStarted, state.GetClientState(p.Id))
	}
}

// queueGameFinished must be called with the room lock held.
func (gm *GameManager) queueGameFinished(out *outbox, room *Room) *database.GameResult {
	state := room.State
	rankings := state.Rankings()

	out.broadcast(room.Id, EventGameFinished, GameFinishedEvent{
		GameNumber: state.GameNumber,
		Rankings:   rankings,
	})

	result := &database.GameResult{
		RoomCode:   room.Id,
		GameNumber: state.GameNumber,
		FinishedAt: gm.rooms.now().UTC(),
		Rankings:   make([]database.RankingRecord, 0, len(rankings)),
	}
	for _, r := range rankings {
		result.Rankings = append(result.Rankings, database.RankingRecord{
			PlayerId: r.Id,
			Name:     r.Name,
			Standing: r.Rank.String(),
			Position: r.Position,
		})
	}

	return result
}

func (gm *GameManager) archive(result *database.GameResult) {
	if result == nil {
		return
	}

	gm.logger.Info("game finished",
		zap.String("room", result.RoomCode),
		zap.Int("game", result.GameNumber))

	if gm.results == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	if err := gm.results.SaveGameResult(ctx, *result); err != nil {
		gm.logger.Error("archive game result",
			zap.String("room", result.RoomCode),
			zap.Int("game", result.GameNumber),
			zap.Error(err))
	}
}

func (gm *GameManager) flush(ctx context.Context, out *outbox) {
	for _, step := range out.steps {
		if step.delay > 0 {
			timer := time.NewTimer(step.delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
			continue
		}
		step.run(gm.notifier)
	}
}

// roomStateFor must be called with the room lock held.
func roomStateFor(room *Room, connectionId string) RoomStateEvent {
	return RoomStateEvent{
		RoomId:     room.Id,
		RoomName:   room.Name,
		Players:    room.State.PublicPlayers(),
		Phase:      room.State.Phase,
		CanStart:   room.State.CanStart(),
		IsCreator:  room.CreatorConnectionId == connectionId,
		GameNumber: room.State.GameNumber,
	}
}

// queueRoomState sends every seated player their view of the room. It must
// be called with the room lock held.
func queueRoomState(out *outbox, room *Room) {
	for _, p := range room.State.Players {
		out.send(p.ConnectionId, EventRoomState, roomStateFor(room, p.ConnectionId))
	}
}

// outbox collects notifications while a room is locked so they can be
// delivered, in order, once it is not.
type outbox struct {
	steps []outboxStep
}

type outboxStep struct {
	delay time.Duration
	run   func(Notifier)
}

func (o *outbox) broadcast(roomId, event string, payload any) {
	o.steps = append(o.steps, outboxStep{run: func(n Notifier) { n.BroadcastToRoom(roomId, event, payload) }})
}

func (o *outbox) send(connectionId, event string, payload any) {
	o.steps = append(o.steps, outboxStep{run: func(n Notifier) { n.SendToConnection(connectionId, event, payload) }})
}

func (o *outbox) join(connectionId, roomId string) {
	o.steps = append(o.steps, outboxStep{run: func(n Notifier) { n.AddToRoom(connectionId, roomId) }})
}

func (o *outbox) leave(connectionId, roomId string) {
	o.steps = append(o.steps, outboxStep{run: func(n Notifier) { n.RemoveFromRoom(connectionId, roomId) }})
}

func (o *outbox) pause(d time.Duration) {
	if d > 0 {
		o.steps = append(o.steps, outboxStep{delay: d})
	}
}

func validateRoomName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", presidente.NewError(ErrInvalidName.Code, "Room name cannot be empty")
	}
	if utf8.RuneCountInString(name) > maxRoomNameLength {
		return "", presidente.NewError(ErrInvalidName.Code, "Room name too long (max 40 characters)")
	}
	return name, nil
}
