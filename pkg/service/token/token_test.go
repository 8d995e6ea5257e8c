package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/pmotracker/pkg/domain/model/auth"
	"github.com/secmon-lab/pmotracker/pkg/domain/types"
	"github.com/secmon-lab/pmotracker/pkg/service/token"
)

func TestService_IssueAndVerify(t *testing.T) {
	svc, err := token.New("test-secret")
	gt.NoError(t, err).Required()

	p := auth.NewPrincipal("u-1", "alice@example.com", "Alice Smith", types.RoleTeamMember, types.CapManageRisks)
	signed, expireAt, err := svc.Issue(p)
	gt.NoError(t, err).Required()
	gt.Bool(t, expireAt.After(time.Now())).True()

	got, err := svc.Verify(signed)
	gt.NoError(t, err).Required()
	gt.Value(t, got.UserID).Equal(types.UserID("u-1"))
	gt.Value(t, got.Email).Equal("alice@example.com")
	gt.Value(t, got.Role).Equal(types.RoleTeamMember)
	gt.Bool(t, got.Can(types.CapManageRisks)).True()
	gt.Bool(t, got.Can(types.CapUploadDocuments)).True()
	gt.Bool(t, got.Can(types.CapDeleteProjects)).False()
}

func TestService_Verify(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc, err := token.New("test-secret", token.WithNow(func() time.Time { return now }), token.WithTTL(time.Hour))
	gt.NoError(t, err).Required()
	signed, _, err := svc.Issue(auth.NewPrincipal("u-1", "", "", types.RolePM))
	gt.NoError(t, err).Required()

	t.Run("wrong secret", func(t *testing.T) {
		other, err := token.New("other-secret", token.WithNow(func() time.Time { return now }))
		gt.NoError(t, err).Required()
		_, err = other.Verify(signed)
		gt.Error(t, err).Is(token.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later, err := token.New("test-secret", token.WithNow(func() time.Time { return now.Add(2 * time.Hour) }))
		gt.NoError(t, err).Required()
		_, err = later.Verify(signed)
		gt.Error(t, err).Is(token.ErrInvalidToken)
	})

	t.Run("unknown role", func(t *testing.T) {
		claims := &token.Claims{
			ID:   "u-2",
			Role: "Admin",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "pmotracker",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		gt.NoError(t, err).Required()

		_, err = svc.Verify(forged)
		gt.Error(t, err).Is(token.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token")
		gt.Error(t, err).Is(token.ErrInvalidToken)
	})
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := token.New("")
	gt.Error(t, err)
}
