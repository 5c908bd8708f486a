package source

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Dialects understood by the package. The value doubles as the config `driver` key.
const (
	MySQL    = "mysql"
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Params describes a database to connect to. DSN, when set, wins over the
// discrete fields.
type Params struct {
	Driver   string `json:"driver,omitempty"`
	DSN      string `json:"dsn,omitempty"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Schema   string `json:"schema,omitempty"`
}

// ErrIncomplete is returned when neither a DSN nor the required fields are given.
var ErrIncomplete = errors.New("incomplete connection parameters")

// NormalizeDriver maps driver aliases to a dialect. Empty input yields "".
func NormalizeDriver(d string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "":
		return "", nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx", "pg":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported driver %q (use mysql, postgres or sqlite)", d)
}

// sqlDriverName is the database/sql registration name for a dialect.
func sqlDriverName(dialect string) string {
	switch dialect {
	case Postgres:
		return "pgx"
	case SQLite:
		return "sqlite"
	default:
		return "mysql"
	}
}

// BuildDSN resolves the dialect and a driver-ready DSN from p.
// URL forms are recognized: mysql:// and mariadb:// are converted to the MySQL
// driver format; postgres:// and postgresql:// select PostgreSQL; sqlite://,
// file: and *.db paths select SQLite.
func BuildDSN(p Params) (dialect, dsn string, err error) {
	dialect, err = NormalizeDriver(p.Driver)
	if err != nil {
		return "", "", err
	}
	if raw := strings.TrimSpace(p.DSN); raw != "" {
		return fromDSN(dialect, raw)
	}
	if dialect == "" {
		dialect = MySQL
	}
	if dialect == SQLite {
		if p.Schema == "" {
			return "", "", fmt.Errorf("%w: sqlite needs a dsn or schema (database file path)", ErrIncomplete)
		}
		return SQLite, p.Schema, nil
	}
	var missing []string
	if p.Host == "" {
		missing = append(missing, "host")
	}
	if p.Username == "" {
		missing = append(missing, "username")
	}
	if p.Password == "" {
		missing = append(missing, "password")
	}
	if p.Schema == "" {
		missing = append(missing, "schema")
	}
	if len(missing) > 0 {
		return "", "", fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	switch dialect {
	case Postgres:
		port := p.Port
		if port == 0 {
			port = 5432
		}
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(p.Username, p.Password),
			Host:   net.JoinHostPort(p.Host, strconv.Itoa(port)),
			Path:   "/" + p.Schema,
		}
		return Postgres, u.String(), nil
	default:
		port := p.Port
		if port == 0 {
			port = 3306
		}
		return MySQL, mysqlConfig(p.Username, p.Password, net.JoinHostPort(p.Host, strconv.Itoa(port)), p.Schema).FormatDSN(), nil
	}
}

func fromDSN(dialect, raw string) (string, string, error) {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "mysql://"), strings.HasPrefix(lower, "mariadb://"):
		dsn, err := toMySQLDSN(raw)
		return MySQL, dsn, err
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres, raw, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return SQLite, raw[len("sqlite://"):], nil
	case strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		if dialect == "" || dialect == SQLite {
			return SQLite, raw, nil
		}
	}
	switch dialect {
	case "", MySQL:
		cfg, err := mysql.ParseDSN(raw)
		if err != nil {
			return "", "", fmt.Errorf("parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		return MySQL, cfg.FormatDSN(), nil
	default:
		return dialect, raw, nil
	}
}

// toMySQLDSN converts a mysql:// or mariadb:// URL to the driver's DSN format.
func toMySQLDSN(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user, pass := "", ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	host := u.Host
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || host == "" || db == "" {
		return "", fmt.Errorf("%w: dsn needs user, host and database", ErrIncomplete)
	}
	if u.Port() == "" {
		host = net.JoinHostPort(host, "3306")
	}
	cfg := mysqlConfig(user, pass, host, db)
	for k, vs := range u.Query() {
		if len(vs) > 0 && k != "parseTime" && k != "loc" {
			if cfg.Params == nil {
				cfg.Params = map[string]string{}
			}
			cfg.Params[k] = vs[0]
		}
	}
	return cfg.FormatDSN(), nil
}

func mysqlConfig(user, pass, addr, db string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = user
	cfg.Passwd = pass
	cfg.Net = "tcp"
	cfg.Addr = addr
	cfg.DBName = db
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.InterpolateParams = true
	return cfg
}

// Redact hides the password in a DSN for display and logs.
func Redact(dsn string) string {
	if dsn == "" {
		return ""
	}
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil {
			return u.Redacted()
		}
		return "****"
	}
	if cfg, err := mysql.ParseDSN(dsn); err == nil && cfg.Passwd != "" {
		cfg.Passwd = "xxxxx"
		return cfg.FormatDSN()
	}
	return dsn
}
