package synth

import "github.com/waftester/scanreport/pkg/finding"

// CommonPort is one entry of the port catalogue.
type CommonPort struct {
	Port           int
	Service        string
	DefaultVersion string
}

var commonPorts = [...]CommonPort{
	{21, "ftp", "vsftpd 3.0.3"},
	{22, "ssh", "OpenSSH 8.2p1"},
	{23, "telnet", "Linux telnetd"},
	{25, "smtp", "Postfix smtpd"},
	{53, "domain", "ISC BIND 9.11.5"},
	{80, "http", "Apache httpd 2.4.41"},
	{110, "pop3", "Dovecot pop3d"},
	{111, "rpcbind", "2-4"},
	{135, "msrpc", "Microsoft Windows RPC"},
	{139, "netbios-ssn", "Samba smbd"},
	{143, "imap", "Dovecot imapd"},
	{443, "https", "nginx 1.18.0"},
	{445, "microsoft-ds", "Samba smbd"},
	{993, "imaps", "Dovecot imapd"},
	{995, "pop3s", "Dovecot pop3d"},
	{1433, "ms-sql-s", "Microsoft SQL Server 2019"},
	{1521, "oracle", "Oracle Database 19c"},
	{3306, "mysql", "MySQL 5.7.32"},
	{3389, "ms-wbt-server", "Microsoft Terminal Services"},
	{5432, "postgresql", "PostgreSQL 12.4"},
	{5900, "vnc", "VNC Server 4.1.1"},
	{6379, "redis", "Redis 6.0.9"},
	{8080, "http-proxy", "Apache Tomcat 9.0.37"},
	{8443, "https-alt", "Apache Tomcat 9.0.37"},
	{9000, "cslistener", "SonarQube"},
	{9092, "XmlIpcRegSvc", "Kafka"},
	{9200, "wap-wsp", "Elasticsearch 7.9.0"},
	{27017, "mongod", "MongoDB 4.4.1"},
}

// CommonPorts returns a copy of the 28-entry port catalogue.
func CommonPorts() []CommonPort {
	return append([]CommonPort(nil), commonPorts[:]...)
}

// HeaderSpec is one entry of the security-header catalogue. A header is
// reported present when a uniform draw exceeds Threshold.
type HeaderSpec struct {
	Name           string
	Threshold      float64
	Value          string
	Description    string
	Recommendation string
}

var headerCatalogue = [...]HeaderSpec{
	{"Content-Security-Policy", 0.5, "default-src 'self'; script-src 'self' https://trusted-cdn.com",
		"Helps prevent Cross-Site-Scripting (XSS) and data injection attacks",
		"Implement a strict Content-Security-Policy header"},
	{"X-XSS-Protection", 0.3, "1; mode=block",
		"Stops pages from loading when browsers detect reflected XSS attacks",
		"Enable X-XSS-Protection with mode=block"},
	{"X-Frame-Options", 0.4, "SAMEORIGIN",
		"Protects against clickjacking attacks",
		"Set X-Frame-Options to DENY or SAMEORIGIN"},
	{"X-Content-Type-Options", 0.5, "nosniff",
		"Prevents browsers from interpreting files as a different MIME type",
		"Set X-Content-Type-Options to nosniff"},
	{"Strict-Transport-Security", 0.6, "max-age=31536000; includeSubDomains",
		"Enforces secure (HTTPS) connections to the server",
		"Implement HSTS with a long max-age"},
	{"Referrer-Policy", 0.7, "strict-origin-when-cross-origin",
		"Controls how much referrer information is sent with requests",
		"Set a restrictive Referrer-Policy"},
	{"Permissions-Policy", 0.8, "camera=(), microphone=(), geolocation=()",
		"Controls which browser features can be used on the page",
		"Implement a Permissions-Policy to restrict unnecessary features"},
	{"X-Permitted-Cross-Domain-Policies", 0.75, "none",
		"Controls which cross-domain policies the browser should respect",
		"Set X-Permitted-Cross-Domain-Policies to none"},
	{"Access-Control-Allow-Origin", 0.6, "*",
		"Specifies which domains can access your API (CORS)",
		"Specify exact domains instead of using wildcard *"},
	{"Cache-Control", 0.4, "no-store, max-age=0",
		"Controls how the page is cached by browsers and proxies",
		"Use no-store for sensitive information"},
	{"Clear-Site-Data", 0.9, `"cache", "cookies", "storage"`,
		"Clears browsing data (cookies, storage, etc.) associated with the site",
		"Use on logout endpoints to clear sensitive data"},
	{"Cross-Origin-Embedder-Policy", 0.85, "require-corp",
		"Controls which resources can be loaded from other origins",
		"Implement COEP for stronger isolation"},
	{"Cross-Origin-Opener-Policy", 0.85, "same-origin",
		"Controls how a document interacts with cross-origin windows",
		"Implement COOP for stronger isolation"},
	{"Cross-Origin-Resource-Policy", 0.8, "same-origin",
		"Controls which websites can include your resources",
		"Implement CORP for stronger isolation"},
}

// HeaderCatalogue returns a copy of the 14-entry header catalogue.
func HeaderCatalogue() []HeaderSpec {
	return append([]HeaderSpec(nil), headerCatalogue[:]...)
}

var payloadPool = [...]string{
	`' OR '1'='1`,
	`' OR 1=1 -- -`,
	`' UNION SELECT 1,2,3--+`,
	`' AND (SELECT 1 FROM (SELECT COUNT(*),CONCAT(VERSION(),FLOOR(RAND(0)*2))x FROM INFORMATION_SCHEMA.TABLES GROUP BY x)a) -- -`,
	`,(select * from (select(sleep(5)))a)`,
	`'; DROP TABLE users; --`,
	`' UNION SELECT username,password,1 FROM users--`,
	`admin' --`,
	`' OR ''='`,
	`1' ORDER BY 3--+`,
	`' OR 'x'='x`,
	`1-false`,
	`1-true`,
	`' AND MID(VERSION(),1,1) = '5';`,
	`';WAITFOR DELAY '0:0:30'--`,
	`' AND id IS NULL; --`,
	`1 AND (SELECT * FROM Users) = 1`,
	`' UNION SELECT sum(columnname) from tablename --`,
}

// PayloadPool returns a copy of the 18-entry injection payload pool.
func PayloadPool() []string {
	return append([]string(nil), payloadPool[:]...)
}

// XSSPayload is attached to every even-indexed high-severity finding.
const XSSPayload = `<script>alert('XSS')</script>`

// Tier describes how one severity tier is synthesised.
type Tier struct {
	Severity    finding.Severity
	Names       [5]string
	PathSuffix  string
	Description string
	Remediation string
}

var tiers = [...]Tier{
	{
		Severity: finding.Critical,
		Names: [5]string{
			"SQL Injection",
			"Remote Code Execution",
			"Authentication Bypass",
			"Unauthorized Admin Access",
			"Command Injection",
		},
		PathSuffix:  "/admin/users.php?id=1",
		Description: "A critical vulnerability allowing an attacker to execute arbitrary SQL commands on the database server.",
		Remediation: "Implement prepared statements, use parameterized queries, or apply an ORM that escapes user input.",
	},
	{
		Severity: finding.High,
		Names: [5]string{
			"Cross-Site Scripting (XSS)",
			"CSRF Token Bypass",
			"Broken Access Control",
			"Insecure Direct Object References",
			"XML External Entity Injection",
		},
		PathSuffix:  "/search?q=test",
		Description: "A vulnerability allowing attackers to inject client-side scripts into web pages viewed by other users.",
		Remediation: "Implement proper output encoding and validate input data. Use Content-Security-Policy headers.",
	},
	{
		Severity: finding.Medium,
		Names: [5]string{
			"Insecure Cookies",
			"Missing Content Security Policy",
			"Cross-Origin Resource Sharing Misconfiguration",
			"Clickjacking Vulnerability",
			"Insecure Password Storage",
		},
		PathSuffix:  "/login",
		Description: "The application sets cookies without the secure flag, allowing them to be transmitted over unencrypted connections.",
		Remediation: "Set the Secure and HttpOnly flags on all sensitive cookies to prevent transmission over unencrypted connections and access from client-side scripts.",
	},
	{
		Severity: finding.Low,
		Names: [5]string{
			"Server Information Disclosure",
			"Outdated JavaScript Library",
			"Missing X-Content-Type-Options Header",
			"HTML Form Without CSRF Protection",
			"Open Redirect",
		},
		PathSuffix:  "/js/jquery-1.11.2.min.js",
		Description: "The application uses an outdated JavaScript library with known vulnerabilities.",
		Remediation: "Update all JavaScript libraries to their latest versions and implement a process to regularly check for and apply updates.",
	},
}

// Tiers returns the tier definitions from critical to low.
func Tiers() []Tier {
	return append([]Tier(nil), tiers[:]...)
}
