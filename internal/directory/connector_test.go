package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyconnect/supplyconnect/internal/db/models"
)

type fakeConn struct {
	bindErr    error
	searchErr  error
	entries    []*ldap.Entry
	binds      []string
	filters    []string
	attributes [][]string
	pageSizes  []uint32
	closeCalls int
}

func (f *fakeConn) Bind(username, _ string) error {
	f.binds = append(f.binds, username)

	return f.bindErr
}

func (f *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.filters = append(f.filters, req.Filter)
	f.attributes = append(f.attributes, req.Attributes)
	if f.searchErr != nil {
		return nil, f.searchErr
	}

	return &ldap.SearchResult{Entries: f.entries}, nil
}

func (f *fakeConn) SearchWithPaging(req *ldap.SearchRequest, size uint32) (*ldap.SearchResult, error) {
	f.pageSizes = append(f.pageSizes, size)

	return f.Search(req)
}

func (f *fakeConn) Close() error {
	f.closeCalls++

	return nil
}

type fakeConfigs struct {
	cfg *models.TenantDirectoryConfig
	err error
}

func (f fakeConfigs) DirectoryConfig(context.Context, string) (*models.TenantDirectoryConfig, error) {
	return f.cfg, f.err
}

type fakeOpener map[string]string

func (f fakeOpener) OpenStrict(token string) (string, error) {
	v, ok := f[token]
	if !ok {
		return "", errors.New("decryption failed")
	}

	return v, nil
}

func testConfig() *models.TenantDirectoryConfig {
	cfg := &models.TenantDirectoryConfig{
		TenantID:       "BR",
		Server:         "dc01.br.example.com",
		BaseDN:         "DC=br,DC=example,DC=com",
		BindDN:         "CN=svc,DC=br,DC=example,DC=com",
		BindCredential: "sealed",
		Active:         true,
	}
	cfg.ApplyDefaults()

	return cfg
}

func aliceEntry() *ldap.Entry {
	return ldap.NewEntry("CN=Alice,OU=Users,DC=br,DC=example,DC=com", map[string][]string{
		"sAMAccountName": {"alice"},
		"givenName":      {"Alice"},
		"sn":             {"Silva"},
		"mail":           {"alice@br.example.com"},
	})
}

func newTestConnector(cfgs ConfigSource, conn *fakeConn, dials *int) *Connector {
	return NewConnector(cfgs, fakeOpener{"sealed": "svc-pass"}, WithDialer(
		func(context.Context, *models.TenantDirectoryConfig) (Conn, error) {
			*dials++

			return conn, nil
		}))
}

func TestAuthenticate(t *testing.T) {
	testCases := []struct {
		name          string
		configs       fakeConfigs
		conn          *fakeConn
		username      string
		password      string
		expectedError error
		expectDial    bool
		expected      *Identity
	}{
		{
			name:          "empty password never binds",
			configs:       fakeConfigs{cfg: testConfig()},
			conn:          &fakeConn{},
			username:      "alice",
			expectedError: ErrInvalidCredentials,
		},
		{
			name:          "no config",
			configs:       fakeConfigs{err: ErrTenantNotConfigured},
			conn:          &fakeConn{},
			username:      "alice",
			password:      "pw",
			expectedError: ErrTenantNotConfigured,
		},
		{
			name:          "inactive config",
			configs:       fakeConfigs{cfg: &models.TenantDirectoryConfig{Server: "dc01", BaseDN: "DC=x"}},
			conn:          &fakeConn{},
			username:      "alice",
			password:      "pw",
			expectedError: ErrTenantNotConfigured,
		},
		{
			name:     "rejected bind",
			configs:  fakeConfigs{cfg: testConfig()},
			conn:     &fakeConn{bindErr: ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("80090308"))},
			username: "alice", password: "wrong",
			expectedError: ErrInvalidCredentials,
			expectDial:    true,
		},
		{
			name:     "server unavailable",
			configs:  fakeConfigs{cfg: testConfig()},
			conn:     &fakeConn{bindErr: ldap.NewError(ldap.ErrorNetwork, errors.New("connection reset"))},
			username: "alice", password: "pw",
			expectedError: ErrConnectionFailed,
			expectDial:    true,
		},
		{
			name:     "no entry",
			configs:  fakeConfigs{cfg: testConfig()},
			conn:     &fakeConn{},
			username: "alice", password: "pw",
			expectedError: ErrUserRecordNotFound,
			expectDial:    true,
		},
		{
			name:    "missing mapped attribute",
			configs: fakeConfigs{cfg: testConfig()},
			conn: &fakeConn{entries: []*ldap.Entry{ldap.NewEntry("CN=Bob,DC=br,DC=example,DC=com", map[string][]string{
				"sAMAccountName": {"bob"},
				"givenName":      {"Bob"},
				"sn":             {"Souza"},
			})}},
			username: "bob", password: "pw",
			expectedError: ErrProtocol,
			expectDial:    true,
		},
		{
			name:     "success",
			configs:  fakeConfigs{cfg: testConfig()},
			conn:     &fakeConn{entries: []*ldap.Entry{aliceEntry()}},
			username: "ALICE", password: "pw",
			expectDial: true,
			expected: &Identity{
				Username:  "alice",
				FirstName: "Alice",
				LastName:  "Silva",
				Email:     "alice@br.example.com",
				DN:        "CN=Alice,OU=Users,DC=br,DC=example,DC=com",
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var dials int

			c := newTestConnector(tc.configs, tc.conn, &dials)

			identity, err := c.Authenticate(context.Background(), "BR", tc.username, tc.password)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, identity)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expected, identity)
			}

			if tc.expectDial {
				assert.Equal(t, 1, dials)
				assert.Equal(t, 1, tc.conn.closeCalls, "connection must be closed")
			} else {
				assert.Zero(t, dials)
			}
		})
	}
}

func TestAuthenticate_BindPrincipalAndFilter(t *testing.T) {
	var dials int

	conn := &fakeConn{entries: []*ldap.Entry{aliceEntry()}}
	c := newTestConnector(fakeConfigs{cfg: testConfig()}, conn, &dials)

	_, err := c.Authenticate(context.Background(), "BR", "al(ce)", "pw")
	require.NoError(t, err)

	require.Len(t, conn.binds, 1)
	assert.Equal(t, "al(ce)@br.example.com", conn.binds[0])
	require.Len(t, conn.filters, 1)
	assert.Equal(t, `(sAMAccountName=al\28ce\29)`, conn.filters[0])
}

func TestAuthenticate_FirstOfSeveralEntries(t *testing.T) {
	var dials int

	other := ldap.NewEntry("CN=Alice2,DC=br,DC=example,DC=com", map[string][]string{
		"sAMAccountName": {"alice2"},
		"givenName":      {"A"},
		"sn":             {"B"},
		"mail":           {"a2@example.com"},
	})
	conn := &fakeConn{entries: []*ldap.Entry{aliceEntry(), other}}
	c := newTestConnector(fakeConfigs{cfg: testConfig()}, conn, &dials)

	identity, err := c.Authenticate(context.Background(), "BR", "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "alice", identity.Username)
}

func TestTestConnection(t *testing.T) {
	t.Run("service bind", func(t *testing.T) {
		var dials int

		conn := &fakeConn{}
		c := newTestConnector(fakeConfigs{}, conn, &dials)

		require.NoError(t, c.TestConnection(context.Background(), testConfig()))
		assert.Equal(t, []string{"CN=svc,DC=br,DC=example,DC=com"}, conn.binds)
		assert.Equal(t, 1, conn.closeCalls)
	})

	t.Run("unreadable credential does not dial", func(t *testing.T) {
		var dials int

		cfg := testConfig()
		cfg.BindCredential = "garbage"
		c := newTestConnector(fakeConfigs{}, &fakeConn{}, &dials)

		require.Error(t, c.TestConnection(context.Background(), cfg))
		assert.Zero(t, dials)
	})

	t.Run("rejected service account", func(t *testing.T) {
		var dials int

		conn := &fakeConn{bindErr: ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("bad"))}
		c := newTestConnector(fakeConfigs{}, conn, &dials)

		require.ErrorIs(t, c.TestConnection(context.Background(), testConfig()), ErrInvalidCredentials)
	})
}

func TestFetchGroups(t *testing.T) {
	var dials int

	conn := &fakeConn{entries: []*ldap.Entry{
		ldap.NewEntry("CN=Buyers,OU=Groups,DC=br,DC=example,DC=com", map[string][]string{
			"cn":             {"Buyers"},
			"sAMAccountName": {"buyers"},
			"description":    {"Purchasing"},
			"member":         {"CN=Alice,OU=Users,DC=br,DC=example,DC=com", "CN=Bob,OU=Users,DC=br,DC=example,DC=com"},
		}),
		ldap.NewEntry("CN=Empty,OU=Groups,DC=br,DC=example,DC=com", map[string][]string{
			"name": {"Empty"},
		}),
	}}
	c := NewConnector(fakeConfigs{}, fakeOpener{"sealed": "svc-pass"}, WithPageSize(50), WithDialer(
		func(context.Context, *models.TenantDirectoryConfig) (Conn, error) {
			dials++

			return conn, nil
		}))

	groups, err := c.FetchGroups(context.Background(), testConfig())
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, "Buyers", groups[0].Name)
	assert.Equal(t, "buyers", groups[0].AccountName)
	assert.Len(t, groups[0].Members, 2)
	assert.Equal(t, "Empty", groups[1].Name)
	assert.Empty(t, groups[1].Members)

	assert.Equal(t, []uint32{50}, conn.pageSizes)
	assert.Equal(t, []string{models.DefaultGroupFilter}, conn.filters)
}

func TestFetchUsers_SkipsEntriesWithoutUsername(t *testing.T) {
	var dials int

	conn := &fakeConn{entries: []*ldap.Entry{
		aliceEntry(),
		ldap.NewEntry("CN=Printer,DC=br,DC=example,DC=com", map[string][]string{"displayName": {"Printer"}}),
	}}
	c := newTestConnector(fakeConfigs{}, conn, &dials)

	users, err := c.FetchUsers(context.Background(), testConfig())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "alice@br.example.com", users[0].Email)
}

func TestFetchUsers_UsesTenantMapping(t *testing.T) {
	var dials int

	cfg := testConfig()
	cfg.UsernameAttr = "uid"
	cfg.FirstNameAttr = "cn"
	cfg.LastNameAttr = "surname"
	cfg.EmailAttr = "userPrincipalName"

	conn := &fakeConn{entries: []*ldap.Entry{
		ldap.NewEntry("uid=maria,ou=people,dc=br,dc=example,dc=com", map[string][]string{
			"uid":               {"maria"},
			"cn":                {"Maria"},
			"surname":           {"Lopes"},
			"userPrincipalName": {"maria@br.example.com"},
			"sAMAccountName":    {"MLOPES"},
		}),
		aliceEntry(),
	}}
	c := newTestConnector(fakeConfigs{}, conn, &dials)

	users, err := c.FetchUsers(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, users, 1, "entries without the mapped login attribute are skipped")

	assert.Equal(t, UserEntry{
		DN:        "uid=maria,ou=people,dc=br,dc=example,dc=com",
		Username:  "maria",
		FirstName: "Maria",
		LastName:  "Lopes",
		Email:     "maria@br.example.com",
	}, users[0])

	require.Len(t, conn.attributes, 1)
	assert.Subset(t, conn.attributes[0], []string{"uid", "cn", "surname", "userPrincipalName", "distinguishedName"})
	assert.NotContains(t, conn.attributes[0], "sAMAccountName")
}

func TestBoundedTimeout(t *testing.T) {
	testCases := []struct {
		name     string
		deadline time.Duration
		timeout  time.Duration
		min, max time.Duration
	}{
		{name: "no deadline keeps the configured timeout", timeout: 10 * time.Second, min: 10 * time.Second, max: 10 * time.Second},
		{name: "closer deadline wins", deadline: 2 * time.Second, timeout: 10 * time.Second, min: time.Second, max: 2 * time.Second},
		{name: "later deadline keeps the configured timeout", deadline: time.Minute, timeout: 10 * time.Second, min: 10 * time.Second, max: 10 * time.Second},
		{name: "expired deadline", deadline: -time.Second, timeout: 10 * time.Second, min: time.Millisecond, max: time.Millisecond},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()

			if tc.deadline != 0 {
				var cancel context.CancelFunc

				ctx, cancel = context.WithTimeout(ctx, tc.deadline)
				defer cancel()
			}

			got := boundedTimeout(ctx, tc.timeout)
			assert.GreaterOrEqual(t, got, tc.min)
			assert.LessOrEqual(t, got, tc.max)
		})
	}
}

// Every directory call is bounded: a config without its own timeout gets the
// process wide default instead of waiting on the server indefinitely.
func TestDefaultTimeout(t *testing.T) {
	testCases := []struct {
		name           string
		ownSeconds     int
		defaultSeconds int
		expected       time.Duration
	}{
		{name: "process default applies", defaultSeconds: 3, expected: 3 * time.Second},
		{name: "own timeout wins", ownSeconds: 20, defaultSeconds: 3, expected: 20 * time.Second},
		{name: "no default falls back to the model default", expected: 10 * time.Second},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.TimeoutSeconds = tc.ownSeconds

			var dialed time.Duration

			c := NewConnector(fakeConfigs{cfg: cfg}, fakeOpener{"sealed": "svc-pass"},
				WithDefaultTimeout(tc.defaultSeconds),
				WithDialer(func(_ context.Context, cfg *models.TenantDirectoryConfig) (Conn, error) {
					dialed = cfg.Timeout()

					return &fakeConn{entries: []*ldap.Entry{aliceEntry()}}, nil
				}))

			resolved, err := c.Config(context.Background(), "BR")
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resolved.Timeout())

			_, err = c.FetchUsers(context.Background(), testConfig())
			require.NoError(t, err)

			if tc.ownSeconds == 0 {
				assert.Equal(t, tc.expected, dialed)
			}
		})
	}
}

func TestFetch_SearchErrorIsTranslated(t *testing.T) {
	var dials int

	conn := &fakeConn{searchErr: ldap.NewError(ldap.LDAPResultOperationsError, errors.New("boom"))}
	c := newTestConnector(fakeConfigs{}, conn, &dials)

	_, err := c.FetchUsers(context.Background(), testConfig())
	require.ErrorIs(t, err, ErrProtocol)
	assert.Equal(t, 1, conn.closeCalls)
}
