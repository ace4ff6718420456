package sqldb

// Statements are shared by the mysql and sqlite dialects: backtick quoting,
// VARCHAR keys and timestamps stored as RFC 3339 text.

var schemaSQL = []string{
	`CREATE TABLE IF NOT EXISTS states (
  id         VARCHAR(60)  NOT NULL PRIMARY KEY,
  created_at VARCHAR(40)  NOT NULL,
  updated_at VARCHAR(40)  NOT NULL,
  name       VARCHAR(128) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS users (
  id         VARCHAR(60)  NOT NULL PRIMARY KEY,
  created_at VARCHAR(40)  NOT NULL,
  updated_at VARCHAR(40)  NOT NULL,
  email      VARCHAR(128) NOT NULL,
  password   VARCHAR(128) NOT NULL,
  first_name VARCHAR(128) NOT NULL DEFAULT '',
  last_name  VARCHAR(128) NOT NULL DEFAULT ''
)`,
	`CREATE TABLE IF NOT EXISTS amenities (
  id         VARCHAR(60)  NOT NULL PRIMARY KEY,
  created_at VARCHAR(40)  NOT NULL,
  updated_at VARCHAR(40)  NOT NULL,
  name       VARCHAR(128) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS cities (
  id         VARCHAR(60)  NOT NULL PRIMARY KEY,
  created_at VARCHAR(40)  NOT NULL,
  updated_at VARCHAR(40)  NOT NULL,
  state_id   VARCHAR(60)  NOT NULL,
  name       VARCHAR(128) NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS places (
  id               VARCHAR(60)   NOT NULL PRIMARY KEY,
  created_at       VARCHAR(40)   NOT NULL,
  updated_at       VARCHAR(40)   NOT NULL,
  city_id          VARCHAR(60)   NOT NULL,
  user_id          VARCHAR(60)   NOT NULL,
  name             VARCHAR(128)  NOT NULL,
  description      VARCHAR(1024) NOT NULL DEFAULT '',
  number_rooms     INT           NOT NULL DEFAULT 0,
  number_bathrooms INT           NOT NULL DEFAULT 0,
  max_guest        INT           NOT NULL DEFAULT 0,
  price_by_night   INT           NOT NULL DEFAULT 0,
  latitude         DOUBLE        NOT NULL DEFAULT 0,
  longitude        DOUBLE        NOT NULL DEFAULT 0
)`,
	"CREATE TABLE IF NOT EXISTS reviews (\n" +
		"  id         VARCHAR(60)   NOT NULL PRIMARY KEY,\n" +
		"  created_at VARCHAR(40)   NOT NULL,\n" +
		"  updated_at VARCHAR(40)   NOT NULL,\n" +
		"  place_id   VARCHAR(60)   NOT NULL,\n" +
		"  user_id    VARCHAR(60)   NOT NULL,\n" +
		"  `text`     VARCHAR(1024) NOT NULL\n" +
		")",
	`CREATE TABLE IF NOT EXISTS place_amenity (
  place_id   VARCHAR(60) NOT NULL,
  amenity_id VARCHAR(60) NOT NULL,
  seq        INT         NOT NULL,
  PRIMARY KEY (place_id, amenity_id)
)`,
}

// children first, so a schema with foreign keys added later still accepts
// the wipe
var tablesDeleteOrder = []string{"place_amenity", "reviews", "places", "cities", "amenities", "users", "states"}

const (
	insertStateSQL   = `INSERT INTO states (id, created_at, updated_at, name) VALUES (?, ?, ?, ?)`
	insertUserSQL    = `INSERT INTO users (id, created_at, updated_at, email, password, first_name, last_name) VALUES (?, ?, ?, ?, ?, ?, ?)`
	insertAmenitySQL = `INSERT INTO amenities (id, created_at, updated_at, name) VALUES (?, ?, ?, ?)`
	insertCitySQL    = `INSERT INTO cities (id, created_at, updated_at, state_id, name) VALUES (?, ?, ?, ?, ?)`
	insertPlaceSQL   = `
INSERT INTO places
  (id, created_at, updated_at, city_id, user_id, name, description,
   number_rooms, number_bathrooms, max_guest, price_by_night, latitude, longitude)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`
	// Note: `text` is reserved in MySQL; keep it quoted everywhere.
	insertReviewSQL = "INSERT INTO reviews (id, created_at, updated_at, place_id, user_id, `text`) VALUES (?, ?, ?, ?, ?, ?)"
	insertLinkSQL   = `INSERT INTO place_amenity (place_id, amenity_id, seq) VALUES (?, ?, ?)`
)

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const (
	selectStatesSQL    = `SELECT id, created_at, updated_at, name FROM states`
	selectUsersSQL     = `SELECT id, created_at, updated_at, email, password, first_name, last_name FROM users`
	selectAmenitiesSQL = `SELECT id, created_at, updated_at, name FROM amenities`
	selectCitiesSQL    = `SELECT id, created_at, updated_at, state_id, name FROM cities`
	selectPlacesSQL    = `
SELECT
  id, created_at, updated_at, city_id, user_id, name, description,
  number_rooms, number_bathrooms, max_guest, price_by_night, latitude, longitude
FROM places
`
	selectReviewsSQL = "SELECT id, created_at, updated_at, place_id, user_id, `text` FROM reviews"
	selectLinksSQL   = `SELECT place_id, amenity_id FROM place_amenity ORDER BY place_id, seq`
)
