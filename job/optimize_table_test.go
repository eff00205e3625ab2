package job

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"inviqa/push-relay/config"
	sqlprovider "inviqa/push-relay/endpoint/data/sql"
	"inviqa/push-relay/job/test"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-test/deep"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

var testTables = sqlprovider.NewTables("")

func TestOptimizeStatements(t *testing.T) {
	tests := []struct {
		driver config.DbDriver
		exp    []string
	}{
		{config.MySQL, []string{
			"OPTIMIZE TABLE `channels`;",
			"OPTIMIZE TABLE `endpoints`;",
			"OPTIMIZE TABLE `endpoint_groups`;",
			"OPTIMIZE TABLE `endpoint_to_group`;",
		}},
		{config.Postgres, []string{
			"VACUUM channels;",
			"VACUUM endpoints;",
			"VACUUM endpoint_groups;",
			"VACUUM endpoint_to_group;",
		}},
		{config.SQLite, []string{"VACUUM;"}},
		{config.DbDriver("oracle"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.driver.String(), func(t *testing.T) {
			var got []string
			for _, s := range optimizeStatements(tt.driver, testTables) {
				got = append(got, s.Query)
			}
			if diff := deep.Equal(tt.exp, got); diff != nil {
				t.Error(diff)
			}
		})
	}
}

func TestNewOptimizeTablesWithDefaultClient(t *testing.T) {
	db, _, _ := sqlmock.New()
	l, _ := logtest.NewNullLogger()

	j := newOptimizeTablesWithDefaultClient(db, config.Postgres, testTables, l)
	if j == nil {
		t.Fatal("received nil instead of optimize job")
	}
	if j.Client != http.DefaultClient {
		t.Error("expected the default http client to be used")
	}
	if j.QuitSidecar {
		t.Error("sidecar quit should not be enabled by default")
	}
}

func TestNewOptimizeTables_UnsupportedDriver(t *testing.T) {
	db, _, _ := sqlmock.New()
	l, _ := logtest.NewNullLogger()

	if j := newOptimizeTables(db, config.DbDriver("oracle"), testTables, test.NewMockHttpClient(), l); j != nil {
		t.Errorf("expected nil for an unsupported driver, got %+v", j)
	}
}

func TestOptimizeTables_Execute(t *testing.T) {
	db, mock, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	for _, q := range []string{"VACUUM channels;", "VACUUM endpoints;", "VACUUM endpoint_groups;", "VACUUM endpoint_to_group;"} {
		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	l, hook := logtest.NewNullLogger()

	j := newOptimizeTables(db, config.Postgres, testTables, test.NewMockHttpClient(), l)
	if err := j.Execute(context.Background()); err != nil {
		t.Errorf("unexpected error: %s", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("some SQL expectations were not met: %s", err)
	}

	if len(hook.AllEntries()) != 4 {
		t.Errorf("expected one log entry per table, got %d", len(hook.AllEntries()))
	}
}

func TestOptimizeTables_ExecuteContinuesAfterError(t *testing.T) {
	db, mock, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	mock.ExpectExec("OPTIMIZE TABLE `channels`;").WillReturnError(errors.New("oops"))
	mock.ExpectExec("OPTIMIZE TABLE `endpoints`;").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("OPTIMIZE TABLE `endpoint_groups`;").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("OPTIMIZE TABLE `endpoint_to_group`;").WillReturnResult(sqlmock.NewResult(0, 0))
	l, _ := logtest.NewNullLogger()

	j := newOptimizeTables(db, config.MySQL, testTables, test.NewMockHttpClient(), l)
	if err := j.Execute(context.Background()); err == nil || err.Error() != "oops" {
		t.Errorf("expected the first error to be returned, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("some SQL expectations were not met: %s", err)
	}
}

func TestOptimizeTables_ExecuteWithSidecarProxyQuit(t *testing.T) {
	db, mock, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	mock.ExpectExec("VACUUM;").WillReturnResult(sqlmock.NewResult(0, 0))
	cl := test.NewMockHttpClient()
	l, _ := logtest.NewNullLogger()

	j := newOptimizeTables(db, config.SQLite, testTables, cl, l)
	j.EnableSideCarProxyQuit("http://localhost:8000")
	if err := j.Execute(context.Background()); err != nil {
		t.Errorf("unexpected error: %s", err)
	}

	if !cl.SentReqs["http://localhost:8000/quitquitquit"] {
		t.Errorf("expected a call to sidecar proxy http://localhost:8000/quitquitquit, but there was none")
	}
}

func TestOptimizeTables_ExecuteWithSidecarProxyQuitClientError(t *testing.T) {
	db, mock, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	mock.ExpectExec("VACUUM;").WillReturnResult(sqlmock.NewResult(0, 0))
	cl := test.NewMockHttpClient()
	cl.ReturnErrors()
	l, _ := logtest.NewNullLogger()

	j := newOptimizeTables(db, config.SQLite, testTables, cl, l)
	j.EnableSideCarProxyQuit("http://localhost:8000")
	if err := j.Execute(context.Background()); err == nil {
		t.Error("expected an error but got nil")
	}

	if len(cl.SentReqs) > 0 {
		t.Errorf("unexpected call to sidecar proxy http://localhost:8000/quitquitquit")
	}
}

func TestRunOptimize(t *testing.T) {
	db, mock, _ := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	mock.ExpectExec("VACUUM;").WillReturnResult(sqlmock.NewResult(0, 0))
	l, _ := logtest.NewNullLogger()

	if code := RunOptimize(context.Background(), nil, db, &config.Config{DBDriver: config.SQLite}, l); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}

	db, mock, _ = sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	mock.ExpectExec("VACUUM;").WillReturnError(errors.New("locked"))

	if code := RunOptimize(context.Background(), nil, db, &config.Config{DBDriver: config.SQLite}, l); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}

	if code := RunOptimize(context.Background(), nil, db, &config.Config{DBDriver: "oracle"}, l); code != 1 {
		t.Errorf("expected exit code 1 for an unsupported driver, got %d", code)
	}
}
