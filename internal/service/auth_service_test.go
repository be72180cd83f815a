package service_test

import (
	"context"
	"encoding/hex"
	"strings"
	"testing"

	"pastel24h/internal/apierror"
	"pastel24h/internal/config"
	"pastel24h/internal/dto"
	"pastel24h/internal/model"
	"pastel24h/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/scrypt"
)

const testSecret = "test-secret-key-for-unit-tests"

func (f *fixture) authService() service.AuthService {
	return service.NewAuthService(f.users, f.modes, &config.Config{JWTSecret: testSecret, JWTExpirationHours: 8})
}

func legacyScryptHash(t *testing.T, password, salt string) string {
	t.Helper()
	key, err := scrypt.Key([]byte(password), []byte(salt), 16384, 8, 1, 64)
	require.NoError(t, err)
	return hex.EncodeToString(key) + "." + salt
}

func TestLogin_IssuesTokenWithRole(t *testing.T) {
	f := newFixture()
	hash, err := service.HashPassword("segredo123")
	require.NoError(t, err)
	u := f.users.add("Ana", model.RoleAdmin)
	u.PasswordHash = hash

	resp, err := f.authService().Login(context.Background(), dto.LoginRequest{Email: "  ANA@pastel24h.test ", Password: "segredo123"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 8*3600, resp.ExpiresIn)
	assert.Equal(t, u.ID.String(), resp.User.ID)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(resp.AccessToken, claims, func(*jwt.Token) (any, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims["user_id"])
	assert.Equal(t, model.RoleAdmin, claims["role"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	f := newFixture()
	hash, err := service.HashPassword("segredo123")
	require.NoError(t, err)
	f.users.add("Ana", model.RoleEmployee).PasswordHash = hash
	svc := f.authService()

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ana@pastel24h.test", Password: "errada"})
	assert.True(t, apierror.Is(err, apierror.KindUnauthorized))

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ninguem@pastel24h.test", Password: "segredo123"})
	assert.True(t, apierror.Is(err, apierror.KindUnauthorized))
}

func TestLogin_UpgradesLegacyScryptHash(t *testing.T) {
	f := newFixture()
	u := f.users.add("Ana", model.RoleEmployee)
	u.PasswordHash = legacyScryptHash(t, "antiga", "a1b2c3d4e5f60718")
	svc := f.authService()

	_, err := svc.Login(context.Background(), dto.LoginRequest{Email: "ana@pastel24h.test", Password: "errada"})
	assert.True(t, apierror.Is(err, apierror.KindUnauthorized))
	assert.Contains(t, u.PasswordHash, ".", "a failed login keeps the legacy hash")

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ana@pastel24h.test", Password: "antiga"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u.PasswordHash, "$2"), "hash upgraded to bcrypt: %s", u.PasswordHash)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Email: "ana@pastel24h.test", Password: "antiga"})
	require.NoError(t, err)
}

func TestUsersCRUD(t *testing.T) {
	f := newFixture()
	svc := f.authService()
	ctx := context.Background()

	created, err := svc.CreateUser(ctx, dto.CreateUserRequest{Email: "Bia@Pastel24h.test", Name: " Bia ", Password: "segredo", Role: model.RoleEmployee})
	require.NoError(t, err)
	assert.Equal(t, "bia@pastel24h.test", created.Email)
	assert.Equal(t, "Bia", created.Name)

	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{Email: "bia@pastel24h.test", Name: "Outra", Password: "segredo", Role: model.RoleEmployee})
	assert.True(t, apierror.Is(err, apierror.KindConflict))

	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{Email: "c@pastel24h.test", Name: "Caio", Password: "segredo", Role: "owner"})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	missing := uuid.NewString()
	_, err = svc.CreateUser(ctx, dto.CreateUserRequest{Email: "d@pastel24h.test", Name: "Duda", Password: "segredo", Role: model.RoleEmployee, TransportModeID: &missing})
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	id := uuid.MustParse(created.ID)
	role := model.RoleAdmin
	updated, err := svc.UpdateUser(ctx, id, dto.UpdateUserRequest{Role: &role, TransportType: strPtr("bike")})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, updated.Role)
	assert.Equal(t, "bike", updated.TransportType)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, svc.DeleteUser(ctx, id))
	assert.True(t, apierror.Is(svc.DeleteUser(ctx, id), apierror.KindNotFound))
}

func TestTransportModes(t *testing.T) {
	f := newFixture()
	svc := service.NewTransportModeService(f.modes, f.users)
	ctx := context.Background()

	bus, err := svc.Create(ctx, dto.TransportModeRequest{Name: "bus", RoundTripPrice: dec("9.40")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, dto.TransportModeRequest{Name: "bus", RoundTripPrice: dec("1")})
	assert.True(t, apierror.Is(err, apierror.KindConflict))
	_, err = svc.Create(ctx, dto.TransportModeRequest{Name: "taxi", RoundTripPrice: dec("-1")})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	busID := uuid.MustParse(bus.ID)
	updated, err := svc.Update(ctx, busID, dto.TransportModeRequest{Name: "bus", RoundTripPrice: dec("10")})
	require.NoError(t, err)
	assert.True(t, updated.RoundTripPrice.Equal(dec("10")))

	u := f.users.add("Ana", model.RoleEmployee)
	u.TransportModeID = &busID
	assert.True(t, apierror.Is(svc.Delete(ctx, busID), apierror.KindConflict))

	u.TransportModeID = nil
	require.NoError(t, svc.Delete(ctx, busID))
	modes, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, modes)
}
