package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/expense-tracker/internal"
	userDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-tracker/internal/storage/memory"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

// failingUsers makes every lookup fail.
type failingUsers struct{}

func (failingUsers) GetUser(int64) (*userDatamodel.User, error) { return nil, errors.New("db down") }
func (failingUsers) GetUserByEmail(string) (*userDatamodel.User, error) {
	return nil, errors.New("db down")
}
func (failingUsers) CreateUser(*userDatamodel.User) (*userDatamodel.User, error) {
	return nil, errors.New("db down")
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		store    *memory.Store
		tokenGen *JWTTokenGenerator
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		store = memory.NewStore()
		tokenGen = NewJWTTokenGenerator("test-secret-that-is-long-enough-123", time.Hour)
		service = NewService(store, tokenGen, bcrypt.MinCost)
	})

	ginkgo.Describe("Signup", func() {
		ginkgo.It("stores a bcrypt hash and returns a profile with a token", func() {
			session, err := service.Signup(ctx, SignupDTO{Email: "a@b.com", Password: "Passw0rd!"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(session.User.Email).To(gomega.Equal("a@b.com"))
			gomega.Expect(session.Token).ToNot(gomega.BeEmpty())

			stored, _ := store.GetUserByEmail("a@b.com")
			gomega.Expect(stored.Password).ToNot(gomega.Equal("Passw0rd!"))
			gomega.Expect(bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("Passw0rd!"))).To(gomega.Succeed())
		})

		ginkgo.It("rejects a second signup with the same email", func() {
			_, err := service.Signup(ctx, SignupDTO{Email: "a@b.com", Password: "x"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.Signup(ctx, SignupDTO{Email: "a@b.com", Password: "y"})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrUserExists))
			appErr, _ := internal.IsAppError(err)
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusBadRequest))
		})

		ginkgo.It("requires email and password", func() {
			_, err := service.Signup(ctx, SignupDTO{Email: "a@b.com"})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Message).To(gomega.Equal("Invalid user data"))
		})

		ginkgo.It("wraps storage failures as internal errors", func() {
			service = NewService(failingUsers{}, tokenGen, bcrypt.MinCost)
			_, err := service.Signup(ctx, SignupDTO{Email: "a@b.com", Password: "x"})
			appErr, _ := internal.IsAppError(err)
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(http.StatusInternalServerError))
		})
	})

	ginkgo.Describe("Login", func() {
		ginkgo.BeforeEach(func() {
			_, err := service.Signup(ctx, SignupDTO{Email: "a@b.com", Password: "Passw0rd!"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})

		ginkgo.It("accepts the right password", func() {
			session, err := service.Login(ctx, LoginDTO{Email: "a@b.com", Password: "Passw0rd!"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(session.User.Email).To(gomega.Equal("a@b.com"))
		})

		ginkgo.It("gives the same error for a wrong password and an unknown email", func() {
			_, wrongPassword := service.Login(ctx, LoginDTO{Email: "a@b.com", Password: "nope"})
			_, unknownEmail := service.Login(ctx, LoginDTO{Email: "x@b.com", Password: "Passw0rd!"})
			gomega.Expect(wrongPassword).To(gomega.MatchError(internal.ErrInvalidCredentials))
			gomega.Expect(unknownEmail).To(gomega.MatchError(internal.ErrInvalidCredentials))
			gomega.Expect(wrongPassword.Error()).To(gomega.Equal(unknownEmail.Error()))
		})

		ginkgo.It("treats missing fields as bad credentials", func() {
			_, err := service.Login(ctx, LoginDTO{})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidCredentials))
		})
	})

	ginkgo.Describe("VerifyToken", func() {
		ginkgo.It("round-trips the user id", func() {
			session, err := service.Signup(ctx, SignupDTO{Email: "a@b.com", Password: "x"})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			userID, err := service.VerifyToken(session.Token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(userID).To(gomega.Equal(session.User.ID))
		})

		ginkgo.It("rejects tokens signed with another secret", func() {
			other := NewJWTTokenGenerator("another-secret-that-is-long-enough", time.Hour)
			token, _ := other.GenerateAccessToken(8, "a@b.com")
			_, err := service.VerifyToken(token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})

		ginkgo.It("reports expired tokens", func() {
			token, _ := tokenGen.GenerateAccessToken(8, "a@b.com")
			tokenGen.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
			_, err := service.VerifyToken(token)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrTokenExpired))
		})

		ginkgo.It("rejects garbage", func() {
			_, err := service.VerifyToken("not-a-jwt")
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidToken))
		})
	})
})

var _ = ginkgo.Describe("Handler", func() {
	var handler *Handler

	ginkgo.BeforeEach(func() {
		tokenGen := NewJWTTokenGenerator("test-secret-that-is-long-enough-123", time.Hour)
		handler = NewHandler(NewService(memory.NewStore(), tokenGen, bcrypt.MinCost), nil)
	})

	post := func(h http.HandlerFunc, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h(rec, req)
		return rec
	}

	ginkgo.It("signs up then logs in without exposing the password", func() {
		rec := post(handler.Signup, `{"email":"a@b.com","password":"Passw0rd!"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))
		gomega.Expect(rec.Header().Get(TokenHeader)).ToNot(gomega.BeEmpty())

		rec = post(handler.Login, `{"email":"a@b.com","password":"Passw0rd!"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		var body map[string]interface{}
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
		gomega.Expect(body).To(gomega.HaveKeyWithValue("email", "a@b.com"))
		gomega.Expect(body).ToNot(gomega.HaveKey("password"))
	})

	ginkgo.It("answers 400 for a duplicate signup", func() {
		post(handler.Signup, `{"email":"a@b.com","password":"x"}`)
		rec := post(handler.Signup, `{"email":"a@b.com","password":"x"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("User already exists"))
	})

	ginkgo.It("answers 400 for a malformed signup body", func() {
		rec := post(handler.Signup, `{"email":`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.It("answers 401 for bad credentials", func() {
		rec := post(handler.Login, `{"email":"who@b.com","password":"x"}`)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("Invalid credentials"))
	})
})
