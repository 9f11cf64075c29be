// Command authctl is a CLI client for the DinneConnect auth service.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/term"
)

// ---- token cache ----

type tokenFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "dinneconnect")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "dinneconnect")
}

func tokenPath() string { return filepath.Join(cfgDir(), "token.json") }

func saveToken(tok string, exp time.Time) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	f, err := os.Create(tokenPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(tokenFile{Token: tok, ExpiresAt: exp})
}

func loadToken() (string, error) {
	b, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.Token == "" || !time.Now().Before(tf.ExpiresAt) {
		return "", errors.New("cached token missing or expired; run login")
	}
	return tf.Token, nil
}

// ---- HTTP helpers ----

type client struct {
	base string
	http *http.Client
}

func (c *client) do(method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, strings.TrimRight(c.base, "/")+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var e struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &e) == nil && e.Kind != "" {
			return fmt.Errorf("%s: %s", e.Kind, e.Message)
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

func readSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// ---- commands ----

func usage() {
	fmt.Fprintln(os.Stderr, `usage: authctl [-addr URL] <command> [args]

commands:
  register <name> <surname> <username> <email>   create an account (prompts for password)
  login <username-or-email>                      obtain and cache a session token
  whoami                                         show the authenticated profile
  passwd                                         change the account password
  delete                                         delete the authenticated account`)
	os.Exit(2)
}

func main() {
	addr := flag.String("addr", "http://localhost:8080", "auth service base URL")
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	c := &client{base: *addr, http: &http.Client{Timeout: 10 * time.Second}}

	var err error
	switch args[0] {
	case "register":
		err = cmdRegister(c, args[1:])
	case "login":
		err = cmdLogin(c, args[1:])
	case "whoami":
		err = cmdWhoami(c)
	case "passwd":
		err = cmdPasswd(c)
	case "delete":
		err = cmdDelete(c)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func cmdRegister(c *client, args []string) error {
	if len(args) != 4 {
		return errors.New("register needs: name surname username email")
	}
	secret, err := readSecret("password: ")
	if err != nil {
		return err
	}
	var profile map[string]any
	err = c.do(http.MethodPost, "/api/post-user/", "", map[string]string{
		"name":       args[0],
		"surname":    args[1],
		"username":   args[2],
		"email":      args[3],
		"credential": secret,
	}, &profile)
	if err != nil {
		return err
	}
	printJSON(profile)
	return nil
}

func cmdLogin(c *client, args []string) error {
	if len(args) != 1 {
		return errors.New("login needs: username-or-email")
	}
	secret, err := readSecret("password: ")
	if err != nil {
		return err
	}
	var resp struct {
		Token  string    `json:"token"`
		Expiry time.Time `json:"expiry"`
	}
	err = c.do(http.MethodPost, "/api/generate-token/", "", map[string]string{
		"username_or_email": args[0],
		"credential":        secret,
	}, &resp)
	if err != nil {
		return err
	}
	if err := saveToken(resp.Token, resp.Expiry); err != nil {
		return err
	}
	fmt.Printf("token cached, expires %s\n", resp.Expiry.Format(time.RFC3339))
	return nil
}

func cmdWhoami(c *client) error {
	tok, err := loadToken()
	if err != nil {
		return err
	}
	var profile map[string]any
	if err := c.do(http.MethodGet, "/api/user/", tok, nil, &profile); err != nil {
		return err
	}
	printJSON(profile)
	return nil
}

func cmdPasswd(c *client) error {
	tok, err := loadToken()
	if err != nil {
		return err
	}
	secret, err := readSecret("new password: ")
	if err != nil {
		return err
	}
	again, err := readSecret("repeat: ")
	if err != nil {
		return err
	}
	if secret != again {
		return errors.New("passwords do not match")
	}
	return c.do(http.MethodPost, "/api/user/password/", tok, map[string]string{
		"new_credential": secret,
	}, nil)
}

func cmdDelete(c *client) error {
	tok, err := loadToken()
	if err != nil {
		return err
	}
	if err := c.do(http.MethodDelete, "/api/user/", tok, nil, nil); err != nil {
		return err
	}
	_ = os.Remove(tokenPath())
	return nil
}
