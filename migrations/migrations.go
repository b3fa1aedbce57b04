package migrations

import (
	"database/sql"
	"time"
)

// AutoMigrateOrders creates the orders table on every shard if it does not
// exist. The UNIQUE key on (email, session_id) is what makes webhook
// redelivery an upsert instead of a duplicate row.
func AutoMigrateOrders(retries int, dbs ...*sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS orders (
			id INT AUTO_INCREMENT PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			session_id VARCHAR(255) NOT NULL,
			amount BIGINT NOT NULL,
			amount_shipping BIGINT NOT NULL,
			images JSON NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE KEY uniq_email_session (email, session_id)
		);
	`
	for _, db := range dbs {
		_, err := db.Exec(query)
		if err != nil {
			// Retry creating the table
			for i := 0; i < retries; i++ {
				time.Sleep(1 * time.Second)
				_, err = db.Exec(query)
				if err == nil {
					break
				}
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}
