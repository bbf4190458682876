package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/gradebook/core/teacher"
	"github.com/trezcool/gradebook/tests"
)

func Test_profileApi(t *testing.T) {
	env := setup(t)
	usr := testutil.CreateUser(t, env.usrRepo, "Cikgu Siti", "siti@school.my", "rahsia123", true)
	token := getToken(t, env.conf, usr)

	saved := teacher.Profile{
		UID:         usr.ID,
		FullName:    "Siti Aminah binti Hassan",
		Email:       "siti.aminah@school.my",
		PhoneNumber: "012-3456789",
		DateOfBirth: null.StringFrom("1988-07-14"),
		Gender:      null.StringFrom("Female"),
	}

	tests := []httpTest{
		{
			name: "empty profile", path: "/v1/profile", token: token, wantCode: http.StatusOK,
			wantData: marchallObj(t, teacher.Profile{UID: usr.ID, Email: usr.Email}),
		},
		{
			name: "invalid update", method: http.MethodPut, path: "/v1/profile", token: token,
			body:     marchallObj(t, teacher.UpdateProfile{FullName: " ", Email: "lol", Gender: "Other"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"full_name": "this field is required",
				"email":     "email must be a valid email address",
				"gender":    "invalid gender",
			}),
		},
		{
			name: "update", method: http.MethodPut, path: "/v1/profile", token: token,
			body: marchallObj(t, teacher.UpdateProfile{
				FullName:    " Siti Aminah binti Hassan ",
				Email:       "Siti.Aminah@school.my",
				PhoneNumber: "012-3456789",
				DateOfBirth: "1988-07-14",
				Gender:      "Female",
				Address:     "  ",
			}),
			wantCode: http.StatusOK, wantData: marchallObj(t, saved),
		},
		{name: "retrieve", path: "/v1/profile", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, saved)},
	}
	runHTTPTests(t, env.srv, tests)

	t.Run("photo required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/profile/photo", token, []byte(`{}`))
		env.srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"photo": "this field is required"}),
		}, rec)
	})

	t.Run("upload photo", func(t *testing.T) {
		photo := []byte("\xff\xd8\xff\xe0 not really a jpeg")
		req, rec := newUploadRequest(t, "/v1/profile/photo", token, "photo", "me.jpg", "image/jpeg", photo)
		env.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got teacher.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, saved.FullName, got.FullName)
		require.True(t, strings.HasPrefix(got.ProfilePhotoURL, env.conf.Blob.BaseURL+"/profile_images/"), got.ProfilePhotoURL)

		u, err := url.Parse(got.ProfilePhotoURL)
		require.NoError(t, err)
		stored, err := os.ReadFile(filepath.Join(env.conf.Blob.Dir, "profile_images", filepath.Base(u.Path)))
		require.NoError(t, err)
		assert.Equal(t, photo, stored)

		// the URL is kept in the profile
		want := saved
		want.ProfilePhotoURL = got.ProfilePhotoURL
		req, rec = newAuthRequest(http.MethodGet, "/v1/profile", token)
		env.srv.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, want)}, rec)
	})
}
