package database

import (
	"context"
	"fmt"
	"strings"
)

// dialect holds the column types and clauses that differ between MySQL
// and PostgreSQL. Everything else in the schema is written once.
type dialect struct {
	id        string // auto-increment primary key
	ref       string // column type of a foreign key to id
	ts        string // timestamp without zone
	double    string
	tableOpts string
	inlineIdx bool // MySQL declares secondary indexes inside CREATE TABLE
}

var dialects = map[string]dialect{
	DriverMySQL: {
		id:        "BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY",
		ref:       "BIGINT UNSIGNED",
		ts:        "DATETIME",
		double:    "DOUBLE",
		tableOpts: " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		inlineIdx: true,
	},
	DriverPostgres: {
		id:     "BIGSERIAL PRIMARY KEY",
		ref:    "BIGINT",
		ts:     "TIMESTAMP",
		double: "DOUBLE PRECISION",
	},
}

type table struct {
	name    string
	columns []string
	indexes [][2]string // name, column list
}

func schema(d dialect) []table {
	return []table{
		{name: "users", columns: []string{
			"id " + d.id,
			"username VARCHAR(50) NOT NULL",
			"email VARCHAR(100) NOT NULL",
			"password_hash VARCHAR(255) NOT NULL",
			"first_name VARCHAR(50) NOT NULL DEFAULT ''",
			"last_name VARCHAR(50) NOT NULL DEFAULT ''",
			"phone VARCHAR(20) NOT NULL DEFAULT ''",
			"date_of_birth DATE NULL",
			"accessibility_needs VARCHAR(1000) NOT NULL DEFAULT ''",
			"is_active BOOLEAN NOT NULL DEFAULT TRUE",
			"created_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"updated_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"CONSTRAINT uq_users_email UNIQUE (email)",
			"CONSTRAINT uq_users_username UNIQUE (username)",
		}},
		{name: "refresh_tokens", columns: []string{
			"id " + d.id,
			"user_id " + d.ref + " NOT NULL",
			"token_hash CHAR(64) NOT NULL",
			"expires_at " + d.ts + " NOT NULL",
			"revoked_at " + d.ts + " NULL",
			"created_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"CONSTRAINT uq_refresh_tokens_hash UNIQUE (token_hash)",
			"CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		}, indexes: [][2]string{{"idx_refresh_tokens_user", "user_id"}}},
		{name: "user_preferences", columns: []string{
			"user_id " + d.ref + " NOT NULL",
			"pref_key VARCHAR(100) NOT NULL",
			"pref_value VARCHAR(1000) NOT NULL DEFAULT ''",
			"PRIMARY KEY (user_id, pref_key)",
			"CONSTRAINT fk_user_preferences_user FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE",
		}},
		{name: "restaurants", columns: []string{
			"id " + d.id,
			"name VARCHAR(200) NOT NULL",
			"microsite_name VARCHAR(200) NOT NULL",
			"description VARCHAR(2000) NOT NULL DEFAULT ''",
			"cuisine_type VARCHAR(100) NOT NULL DEFAULT ''",
			"location VARCHAR(200) NOT NULL DEFAULT ''",
			"address VARCHAR(500) NOT NULL DEFAULT ''",
			"phone VARCHAR(30) NOT NULL DEFAULT ''",
			"email VARCHAR(100) NOT NULL DEFAULT ''",
			"website VARCHAR(200) NOT NULL DEFAULT ''",
			"price_range VARCHAR(10) NOT NULL DEFAULT ''",
			"average_rating " + d.double + " NOT NULL DEFAULT 0",
			"total_reviews INT NOT NULL DEFAULT 0",
			"max_party_size INT NOT NULL DEFAULT 8",
			"accepts_reservations BOOLEAN NOT NULL DEFAULT TRUE",
			"is_active BOOLEAN NOT NULL DEFAULT TRUE",
			"created_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"CONSTRAINT uq_restaurants_name UNIQUE (name)",
			"CONSTRAINT uq_restaurants_microsite UNIQUE (microsite_name)",
		}},
		{name: "restaurant_features", columns: []string{
			"restaurant_id " + d.ref + " NOT NULL",
			"feature VARCHAR(100) NOT NULL",
			"PRIMARY KEY (restaurant_id, feature)",
			"CONSTRAINT fk_restaurant_features_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id) ON DELETE CASCADE",
		}},
		{name: "restaurant_dietary_options", columns: []string{
			"restaurant_id " + d.ref + " NOT NULL",
			"dietary_option VARCHAR(100) NOT NULL",
			"PRIMARY KEY (restaurant_id, dietary_option)",
			"CONSTRAINT fk_restaurant_dietary_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id) ON DELETE CASCADE",
		}},
		{name: "restaurant_opening_hours", columns: []string{
			"restaurant_id " + d.ref + " NOT NULL",
			"day_of_week VARCHAR(10) NOT NULL",
			"opening_hours VARCHAR(64) NOT NULL",
			"PRIMARY KEY (restaurant_id, day_of_week)",
			"CONSTRAINT fk_restaurant_hours_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id) ON DELETE CASCADE",
		}},
		{name: "availability_slots", columns: []string{
			"id " + d.id,
			"restaurant_id " + d.ref + " NOT NULL",
			"slot_date DATE NOT NULL",
			"slot_time TIME NOT NULL",
			"max_party_size INT NOT NULL DEFAULT 8",
			"is_open BOOLEAN NOT NULL DEFAULT TRUE",
			"CONSTRAINT uq_slots_restaurant_date_time UNIQUE (restaurant_id, slot_date, slot_time)",
			"CONSTRAINT fk_slots_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id) ON DELETE CASCADE",
		}},
		{name: "customers", columns: []string{
			"id " + d.id,
			"user_id " + d.ref + " NOT NULL",
			"title VARCHAR(20) NOT NULL DEFAULT ''",
			"first_name VARCHAR(50) NOT NULL DEFAULT ''",
			"surname VARCHAR(50) NOT NULL DEFAULT ''",
			"mobile_country_code VARCHAR(10) NOT NULL DEFAULT ''",
			"mobile VARCHAR(20) NOT NULL DEFAULT ''",
			"email VARCHAR(100) NOT NULL DEFAULT ''",
			"receive_email_marketing BOOLEAN NOT NULL DEFAULT FALSE",
			"receive_sms_marketing BOOLEAN NOT NULL DEFAULT FALSE",
			"created_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"CONSTRAINT uq_customers_user UNIQUE (user_id)",
			"CONSTRAINT fk_customers_user FOREIGN KEY (user_id) REFERENCES users(id)",
		}},
		{name: "cancellation_reasons", columns: []string{
			"id INT PRIMARY KEY",
			"reason VARCHAR(100) NOT NULL",
			"description VARCHAR(500) NOT NULL DEFAULT ''",
		}},
		{name: "bookings", columns: []string{
			"id " + d.id,
			"booking_reference VARCHAR(10) NOT NULL",
			"restaurant_id " + d.ref + " NOT NULL",
			"customer_id " + d.ref + " NOT NULL",
			"user_id " + d.ref + " NOT NULL",
			"visit_date DATE NOT NULL",
			"visit_time TIME NOT NULL",
			"party_size INT NOT NULL",
			"channel_code VARCHAR(50) NOT NULL DEFAULT 'ONLINE'",
			"special_requests VARCHAR(1000) NOT NULL DEFAULT ''",
			"is_leave_time_confirmed BOOLEAN NOT NULL DEFAULT FALSE",
			"room_number VARCHAR(20) NOT NULL DEFAULT ''",
			"status VARCHAR(20) NOT NULL DEFAULT 'confirmed'",
			"cancellation_reason_id INT NULL",
			"created_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"updated_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"CONSTRAINT uq_bookings_reference UNIQUE (booking_reference)",
			"CONSTRAINT fk_bookings_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id)",
			"CONSTRAINT fk_bookings_customer FOREIGN KEY (customer_id) REFERENCES customers(id)",
			"CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users(id)",
			"CONSTRAINT fk_bookings_reason FOREIGN KEY (cancellation_reason_id) REFERENCES cancellation_reasons(id)",
		}, indexes: [][2]string{
			{"idx_bookings_user", "user_id"},
			{"idx_bookings_slot", "restaurant_id, visit_date, visit_time"},
		}},
		{name: "booking_status_history", columns: []string{
			"id " + d.id,
			"booking_id " + d.ref + " NOT NULL",
			"old_status VARCHAR(20) NOT NULL DEFAULT ''",
			"new_status VARCHAR(20) NOT NULL",
			"notes VARCHAR(1000) NOT NULL DEFAULT ''",
			"changed_by " + d.ref + " NOT NULL",
			"changed_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"CONSTRAINT fk_status_history_booking FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE",
		}, indexes: [][2]string{{"idx_status_history_booking", "booking_id"}}},
		{name: "restaurant_reviews", columns: []string{
			"id " + d.id,
			"user_id " + d.ref + " NOT NULL",
			"restaurant_id " + d.ref + " NOT NULL",
			"booking_id " + d.ref + " NOT NULL",
			"booking_reference VARCHAR(10) NOT NULL",
			"rating SMALLINT NOT NULL",
			"title VARCHAR(200) NOT NULL DEFAULT ''",
			"review_text VARCHAR(2000) NOT NULL DEFAULT ''",
			"food_rating SMALLINT NULL",
			"service_rating SMALLINT NULL",
			"ambiance_rating SMALLINT NULL",
			"value_rating SMALLINT NULL",
			"would_recommend BOOLEAN NOT NULL DEFAULT TRUE",
			"is_verified BOOLEAN NOT NULL DEFAULT FALSE",
			"is_published BOOLEAN NOT NULL DEFAULT TRUE",
			"created_at " + d.ts + " NOT NULL DEFAULT CURRENT_TIMESTAMP",
			"CONSTRAINT uq_reviews_user_booking UNIQUE (user_id, booking_id)",
			"CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users(id)",
			"CONSTRAINT fk_reviews_restaurant FOREIGN KEY (restaurant_id) REFERENCES restaurants(id)",
			"CONSTRAINT fk_reviews_booking FOREIGN KEY (booking_id) REFERENCES bookings(id)",
		}, indexes: [][2]string{{"idx_reviews_restaurant", "restaurant_id"}}},
	}
}

// Statements returns the DDL for driver in creation order.
func Statements(driver string) ([]string, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	var stmts, post []string
	for _, t := range schema(d) {
		cols := t.columns
		for _, idx := range t.indexes {
			if d.inlineIdx {
				cols = append(cols, fmt.Sprintf("INDEX %s (%s)", idx[0], idx[1]))
			} else {
				post = append(post, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx[0], t.name, idx[1]))
			}
		}
		stmts = append(stmts, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)%s",
			t.name, strings.Join(cols, ",\n  "), d.tableOpts))
	}
	return append(stmts, post...), nil
}

// Migrate creates any missing tables. It never alters existing ones.
func Migrate(ctx context.Context, db *DB) error {
	stmts, err := Statements(db.DriverName())
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w\n%s", err, stmt)
		}
	}
	return nil
}
