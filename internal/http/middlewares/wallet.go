package middlewares

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/split-swapper/internal/common"
	"github.com/hxuan190/split-swapper/internal/http/httputil"
)

const (
	WalletHeader    = "X-Wallet-Address"
	TimestampHeader = "X-Timestamp"
	SignatureHeader = "X-Signature"

	callerContextKey = "caller"

	// MaxClockSkew bounds how far a signed timestamp may drift from server time.
	MaxClockSkew = 5 * time.Minute
)

// SigningMessage is the payload a wallet signs to authenticate a request.
func SigningMessage(method, path, timestamp string, body []byte) []byte {
	digest := sha256.Sum256(body)
	var buf bytes.Buffer
	buf.WriteString("split-swapper\n")
	buf.WriteString(method + "\n")
	buf.WriteString(path + "\n")
	buf.WriteString(timestamp + "\n")
	buf.WriteString(hex.EncodeToString(digest[:]))
	return buf.Bytes()
}

// RequireWallet authenticates the caller from the wallet headers. The wallet
// must sign SigningMessage with a timestamp inside MaxClockSkew.
// Whether the caller may act is decided by the service, not here.
func RequireWallet() gin.HandlerFunc {
	return requireWallet(time.Now)
}

func requireWallet(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(WalletHeader)
		if raw == "" {
			httputil.HandleError(c, common.HTTPErrorUnauthorized("missing "+WalletHeader+" header"))
			return
		}
		caller, err := solana.PublicKeyFromBase58(raw)
		if err != nil {
			httputil.HandleError(c, common.HTTPErrorUnauthorized("invalid "+WalletHeader+" header"))
			return
		}

		ts := c.GetHeader(TimestampHeader)
		unix, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			httputil.HandleError(c, common.HTTPErrorUnauthorized("invalid "+TimestampHeader+" header"))
			return
		}
		skew := now().Sub(time.Unix(unix, 0))
		if skew > MaxClockSkew || skew < -MaxClockSkew {
			httputil.HandleError(c, common.HTTPErrorUnauthorized("stale "+TimestampHeader+" header"))
			return
		}

		sig, err := solana.SignatureFromBase58(c.GetHeader(SignatureHeader))
		if err != nil {
			httputil.HandleError(c, common.HTTPErrorUnauthorized("invalid "+SignatureHeader+" header"))
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, err = io.ReadAll(c.Request.Body)
			if err != nil {
				httputil.HandleError(c, common.HTTPErrorBadRequest("unreadable request body"))
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		msg := SigningMessage(c.Request.Method, c.Request.URL.Path, ts, body)
		if !sig.Verify(caller, msg) {
			httputil.HandleError(c, common.HTTPErrorUnauthorized("signature does not match "+WalletHeader))
			return
		}

		c.Set(callerContextKey, caller)
		c.Next()
	}
}

// Caller returns the wallet authenticated by RequireWallet.
func Caller(c *gin.Context) solana.PublicKey {
	if v, ok := c.Get(callerContextKey); ok {
		if caller, ok := v.(solana.PublicKey); ok {
			return caller
		}
	}
	return solana.PublicKey{}
}
