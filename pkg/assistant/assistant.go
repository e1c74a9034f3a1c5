// Package assistant implements the command gate between the messaging
// transport and Google Drive. It parses inbound messages, walks users
// through the Drive connect flow, and dispatches authenticated commands to
// the file-store executor. Parsing never touches the network; the gate owns
// every session-state transition.
package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/beam-cloud/satchel/pkg/command"
	"github.com/beam-cloud/satchel/pkg/common"
	"github.com/beam-cloud/satchel/pkg/oauth"
	"github.com/beam-cloud/satchel/pkg/types"
	"github.com/rs/zerolog/log"
)

// OAuthClient is the slice of the OAuth flow the gate depends on. The
// correlation token rides through AuthorizeURL verbatim as the state
// parameter and comes back in the callback.
type OAuthClient interface {
	IsConfigured() bool
	AuthorizeURL(correlationToken string) string
	Exchange(ctx context.Context, code string) (*types.DriveCredentials, error)
	Refresh(ctx context.Context, refreshToken string) (*types.DriveCredentials, error)
}

// Assistant routes parsed commands according to the user's connection state.
// Unauthenticated users only ever reach the connect flow; the executor is
// invoked exclusively with a live credential.
type Assistant struct {
	oauthClient OAuthClient
	pending     oauth.PendingStore
	credentials *CredentialManager
	executor    Executor
	locker      UserLocker
}

func New(oauthClient OAuthClient, pending oauth.PendingStore, credentials *CredentialManager, executor Executor, locker UserLocker) *Assistant {
	if locker == nil {
		locker = NewMemoryUserLocker()
	}
	return &Assistant{
		oauthClient: oauthClient,
		pending:     pending,
		credentials: credentials,
		executor:    executor,
		locker:      locker,
	}
}

// HandleMessage processes one inbound message and returns the reply text.
// It always replies; failures come back as user-facing instructions rather
// than errors.
func (a *Assistant) HandleMessage(ctx context.Context, msg types.InboundMessage) string {
	body := strings.TrimSpace(msg.Body)
	if body == "" {
		return ReplyEmptyBody
	}

	cmd, err := command.Parse(body, msg.HasAttachment)
	if err != nil {
		parseErr := &command.ParseError{}
		if parseErr.From(err) {
			return parseErr.Reply
		}
		log.Error().Str("user_id", msg.UserID).Err(err).Msg("unexpected parse failure")
		return ReplyEmptyBody
	}

	switch cmd.Kind {
	case command.KindConnect:
		return a.beginConnect(ctx, msg.UserID)
	case command.KindUnknown:
		return ReplyUnknownCommand(command.Keyword(cmd.Raw))
	}

	return a.execute(ctx, msg.UserID, cmd, msg.Attachment)
}

// HandleAuthorizationCallback completes the connect flow for the user the
// correlation token was issued to. The token is consumed on lookup whether
// or not the exchange succeeds, so a replayed callback always fails with
// ErrAuthorizationExpired.
func (a *Assistant) HandleAuthorizationCallback(ctx context.Context, correlationToken, code string) error {
	userID, err := a.pending.Redeem(ctx, correlationToken)
	if err != nil {
		return err
	}

	// The exchange is a network call; it stays outside the per-user lock
	creds, err := a.oauthClient.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("code exchange failed: %w", err)
	}

	if err := a.locker.Lock(ctx, userID); err != nil {
		return fmt.Errorf("session lock failed: %w", err)
	}
	defer a.locker.Unlock(userID)

	if err := a.credentials.Save(ctx, userID, creds); err != nil {
		return err
	}

	log.Info().Str("user_id", userID).Msg("drive connected")
	return nil
}

// DiscardAuthorization consumes a pending setup token without completing
// the flow, typically because the provider reported that the user denied
// access. The token cannot be redeemed afterwards.
func (a *Assistant) DiscardAuthorization(ctx context.Context, correlationToken string) {
	userID, err := a.pending.Redeem(ctx, correlationToken)
	if err != nil {
		return
	}
	log.Info().Str("user_id", userID).Msg("setup link discarded")
}

// beginConnect issues a fresh setup link. Re-issuing while an earlier link
// is outstanding simply adds another valid token; old ones age out.
func (a *Assistant) beginConnect(ctx context.Context, userID string) string {
	if !a.oauthClient.IsConfigured() {
		return ReplySetupNotConfigured
	}

	token := common.GenerateCorrelationToken()

	if err := a.locker.Lock(ctx, userID); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("session lock failed")
		return fmt.Sprintf("Error initiating setup. Check logs for details: %v", err)
	}
	err := a.pending.Put(ctx, token, userID)
	a.locker.Unlock(userID)

	if err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("failed to store pending authorization")
		return fmt.Sprintf("Error initiating setup. Check logs for details: %v", err)
	}

	return ReplySetupLink(a.oauthClient.AuthorizeURL(token))
}

// execute resolves the user's credential and runs the command. Credential
// problems never reach the executor: a missing connection deflects to the
// connect flow and a rejection clears the stored credential first.
func (a *Assistant) execute(ctx context.Context, userID string, cmd command.Command, att *types.Attachment) string {
	accessToken, err := a.credentials.AccessToken(ctx, userID)
	if err != nil {
		return a.failureReply(ctx, userID, err)
	}

	reply, err := a.executor.Execute(ctx, userID, accessToken, cmd, att)
	if err != nil {
		return a.failureReply(ctx, userID, err)
	}
	return reply
}

// failureReply maps gate-level failures onto user-facing instructions. A
// credential rejection transitions the user back to unauthenticated as a
// side effect.
func (a *Assistant) failureReply(ctx context.Context, userID string, err error) string {
	notConnected := &types.ErrNotConnected{}
	if notConnected.From(err) {
		return ReplyNotConnected
	}

	rejected := &types.ErrCredentialRejected{}
	if rejected.From(err) {
		a.clearCredential(ctx, userID)
		return ReplyReconnect
	}

	log.Error().Str("user_id", userID).Err(err).Msg("command failed")
	return fmt.Sprintf("❌ An unknown error occurred: %v", err)
}

func (a *Assistant) clearCredential(ctx context.Context, userID string) {
	if err := a.locker.Lock(ctx, userID); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("session lock failed")
		return
	}
	defer a.locker.Unlock(userID)

	if err := a.credentials.Clear(ctx, userID); err != nil {
		log.Error().Str("user_id", userID).Err(err).Msg("failed to clear rejected credential")
	}
}
