package job

import (
	"context"
	"database/sql"
	"net/http"

	"inviqa/push-relay/config"
	sqlprovider "inviqa/push-relay/endpoint/data/sql"
	"inviqa/push-relay/newrelic"

	nr "github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

type optimizeTables struct {
	Db         *sql.DB
	Driver     config.DbDriver
	Statements []statement
	log        logrus.FieldLogger
	SidecarQuitter
}

// RunOptimize reclaims space in the endpoint store tables and returns the
// process exit code.
func RunOptimize(ctx context.Context, app *nr.Application, db *sql.DB, cfg *config.Config, l logrus.FieldLogger) int {
	ctx, txn := newrelic.ContextWithTxn(ctx, "OptimizeTables", app)
	defer txn.End()

	j := newOptimizeTablesWithDefaultClient(db, cfg.DBDriver, sqlprovider.NewTables(cfg.DBTablePrefix), l)
	if j == nil {
		l.WithField("driver", cfg.DBDriver.String()).Error("unable to determine the database driver")
		return 1
	}

	if cfg.SidecarProxyUrl != "" {
		j.EnableSideCarProxyQuit(cfg.SidecarProxyUrl)
	}

	if err := j.Execute(ctx); err != nil {
		return 1
	}

	return 0
}

func newOptimizeTablesWithDefaultClient(db *sql.DB, dr config.DbDriver, t sqlprovider.Tables, l logrus.FieldLogger) *optimizeTables {
	return newOptimizeTables(db, dr, t, http.DefaultClient, l)
}

func newOptimizeTables(db *sql.DB, dr config.DbDriver, t sqlprovider.Tables, cl httpPoster, l logrus.FieldLogger) *optimizeTables {
	stmts := optimizeStatements(dr, t)
	if len(stmts) == 0 {
		return nil
	}

	return &optimizeTables{
		Db:             db,
		Driver:         dr,
		Statements:     stmts,
		log:            l,
		SidecarQuitter: SidecarQuitter{Client: cl},
	}
}

// Execute runs every statement even when an earlier one fails, and returns
// the first error. The sidecar is told to quit either way.
func (o *optimizeTables) Execute(ctx context.Context) error {
	var firstErr error
	for _, s := range o.Statements {
		l := o.log.WithFields(logrus.Fields{"driver": o.Driver.String(), "table": s.Collection})
		if err := o.exec(ctx, s); err != nil {
			l.WithError(err).Error("an error occurred optimizing the endpoint store")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		l.Info("optimized endpoint store successfully")
	}

	if o.QuitSidecar {
		if err := o.Quit(o.log); err != nil {
			return err
		}
	}

	return firstErr
}

func (o *optimizeTables) exec(ctx context.Context, s statement) error {
	defer o.newRelicSegment(ctx, s).End()

	_, err := o.Db.ExecContext(ctx, s.Query)

	return err
}

func (o *optimizeTables) newRelicSegment(ctx context.Context, s statement) *nr.DatastoreSegment {
	return &nr.DatastoreSegment{
		Product:    datastoreProduct(o.Driver),
		Collection: s.Collection,
		Operation:  s.Operation,
		StartTime:  nr.FromContext(ctx).StartSegmentNow(),
	}
}
