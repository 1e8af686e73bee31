package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_status_present",
			SQL:  `SELECT submission_id FROM application_statuses WHERE btrim(status) = ''`,
		},
		{
			Name: "O2_status_known",
			SQL: `SELECT submission_id, status FROM application_statuses
                  WHERE status NOT IN ('Under Review','Approved','Additional Information Required')`,
		},
		{
			Name: "O3_last_updated_not_future",
			SQL:  `SELECT submission_id, last_updated FROM application_statuses WHERE last_updated > CURRENT_DATE`,
		},
		{
			Name: "O4_seed_rows_intact",
			SQL: `SELECT s.id FROM (VALUES
                      ('RCT-123-456-7890','Under Review',DATE '2023-08-25'),
                      ('RCT-234-567-8901','Approved',DATE '2023-08-24'),
                      ('RCT-345-678-9012','Additional Information Required',DATE '2023-08-23')
                  ) AS s(id, status, last_updated)
                  LEFT JOIN application_statuses a
                    ON a.submission_id = s.id AND a.status = s.status AND a.last_updated = s.last_updated
                  WHERE a.submission_id IS NULL`,
		},
		{
			Name: "O5_writer_ids_well_formed",
			SQL: `SELECT submission_id FROM application_statuses
                  WHERE submission_id !~ '^RCT-[0-9]{3}-[0-9]{3}-[0-9]{4}$'`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
