package database

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// jdbc 参数 → go-sql-driver 参数
var jdbcRenames = map[string]string{
	"characterEncoding": "charset",
	"serverTimezone":    "loc",
}

var jdbcDropped = []string{"useUnicode", "zeroDateTimeBehavior"}

// normalizeMySQLDSN 把 mysql:// / jdbc:mysql:// 风格的 URL 改写成 user:pass@tcp(host)/db?...，
// 已经是 go-sql-driver 语法的 DSN 原样返回。
func normalizeMySQLDSN(input, userOverride, passOverride string) string {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if !strings.HasPrefix(in, "mysql://") {
		return in
	}
	u, err := url.Parse(in)
	if err != nil {
		return in // 交给驱动报错
	}

	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	q := u.Query()
	if v := q.Get("user"); v != "" {
		user = v
	}
	if v := q.Get("password"); v != "" {
		pass = v
	}
	q.Del("user")
	q.Del("password")
	if userOverride != "" {
		user = userOverride
	}
	if passOverride != "" {
		pass = passOverride
	}

	for from, to := range jdbcRenames {
		if v := q.Get(from); v != "" && q.Get(to) == "" {
			q.Set(to, v)
		}
		q.Del(from)
	}
	for _, k := range jdbcDropped {
		q.Del(k)
	}
	if v := strings.ToLower(q.Get("useSSL")); v != "" {
		switch v {
		case "true", "1":
			q.Set("tls", "true")
		case "skip-verify", "preferred":
			q.Set("tls", v)
		default:
			q.Set("tls", "false")
		}
		q.Del("useSSL")
	}
	if q.Get("parseTime") == "" {
		q.Set("parseTime", "true")
	}
	if q.Get("charset") == "" {
		q.Set("charset", "utf8mb4")
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	if cred != "" {
		cred += "@"
	}
	dsn := fmt.Sprintf("%stcp(%s)/%s", cred, u.Host, strings.TrimPrefix(u.Path, "/"))
	if enc := q.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn
}

// password=xxx 键值对：postgres 关键字 DSN 与 URL query 里都可能出现
var passwordKV = regexp.MustCompile(`(?i)(\bpassword\s*=\s*)('(?:[^'\\]|\\.)*'|[^\s&]+)`)

// maskDSN 隐藏密码，只用于打日志
func maskDSN(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.User != nil && u.Host != "" {
		if _, ok := u.User.Password(); ok {
			// 手工拼接，url.UserPassword 会把 * 转义成 %2A
			user := u.User.Username()
			u.User = nil
			rest := strings.TrimPrefix(u.String(), u.Scheme+"://")
			dsn = u.Scheme + "://" + user + ":****@" + rest
		}
		return passwordKV.ReplaceAllString(dsn, "${1}****")
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon > 0 {
			dsn = dsn[:colon+1] + "****" + dsn[at:]
		}
	}
	return passwordKV.ReplaceAllString(dsn, "${1}****")
}
