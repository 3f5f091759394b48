package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/taskboard/internal/metrics"
	"github.com/dropDatabas3/taskboard/internal/observability/logger"
)

// jwksDocument es la respuesta del endpoint de certs del IdP.
type jwksDocument struct {
	Keys []jwkDescriptor `json:"keys"`
}

type jwkDescriptor struct {
	Kty string   `json:"kty"`
	Use string   `json:"use"`
	Kid string   `json:"kid"`
	Alg string   `json:"alg"`
	X5c []string `json:"x5c"`
	N   string   `json:"n"`
	E   string   `json:"e"`
}

// KeySet es el conjunto de claves públicas de firma vigentes, indexado
// por kid. Se escribe una vez por fetch y se lee desde ahí.
type KeySet struct {
	byKID map[string]*rsa.PublicKey
	first *rsa.PublicKey // primera clave sig/RSA del documento
}

// Key devuelve la clave para un kid, o la primera clave de firma si el
// token no trae kid. ok=false si el kid no está en el set.
func (ks *KeySet) Key(kid string) (*rsa.PublicKey, bool) {
	if ks == nil {
		return nil, false
	}
	if kid == "" {
		return ks.first, ks.first != nil
	}
	k, ok := ks.byKID[kid]
	return k, ok
}

// ResolverConfig configura el KeyResolver.
type ResolverConfig struct {
	// BaseURL y Realm arman la well-known URL:
	// {base}/realms/{realm}/protocol/openid-connect/certs
	BaseURL string
	Realm   string

	// HTTPTimeout acota el GET al IdP. Obligatorio tenerlo: la referencia
	// no ponía timeout y eso es un defecto, no un comportamiento a copiar.
	HTTPTimeout time.Duration

	// TTL es la vigencia blanda del set cacheado. 0 = vida del proceso.
	TTL time.Duration

	// RefreshMinInterval limita los refresh forzados por kid desconocido.
	// 0 = 1 minuto.
	RefreshMinInterval time.Duration

	// HTTPClient permite inyectar un cliente (tests). Si es nil se crea
	// uno con HTTPTimeout.
	HTTPClient *http.Client
}

// KeyResolver resuelve y cachea el JWKS del IdP.
//
// El cache es estado compartido entre requests: la primera resolución pasa
// por singleflight para que N primeros-requests concurrentes disparen un
// solo fetch. Un refresh duplicado perdido no corrompe nada (el valor es
// idempotente por configuración del provider).
type KeyResolver struct {
	certsURL   string
	httpc      *http.Client
	ttl        time.Duration
	refreshMin time.Duration

	sf singleflight.Group

	mu         sync.RWMutex
	set        *KeySet
	fetchedAt  time.Time
	lastForced time.Time
}

func NewKeyResolver(cfg ResolverConfig) *KeyResolver {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}
	refreshMin := cfg.RefreshMinInterval
	if refreshMin <= 0 {
		refreshMin = time.Minute
	}
	return &KeyResolver{
		certsURL: fmt.Sprintf("%s/realms/%s/protocol/openid-connect/certs",
			strings.TrimRight(cfg.BaseURL, "/"), cfg.Realm),
		httpc:      httpc,
		ttl:        cfg.TTL,
		refreshMin: refreshMin,
	}
}

// Resolve devuelve el KeySet vigente, disparando el fetch si todavía no
// hay nada cacheado o si venció el TTL. Todo fallo de fetch envuelve
// ErrAuthUnavailable.
func (r *KeyResolver) Resolve(ctx context.Context) (*KeySet, error) {
	r.mu.RLock()
	set, fetchedAt := r.set, r.fetchedAt
	r.mu.RUnlock()

	if set != nil && !r.expired(fetchedAt) {
		return set, nil
	}
	return r.fetch(ctx)
}

// KeyFor devuelve la clave para un kid. Si el kid no está en el set
// cacheado, fuerza un refresh (rate-limited) antes de rendirse: cubre
// rotación de claves del IdP sin reiniciar el proceso.
func (r *KeyResolver) KeyFor(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	set, err := r.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if k, ok := set.Key(kid); ok {
		return k, nil
	}

	if r.allowForcedRefresh() {
		logger.From(ctx).Info("unknown kid, forcing jwks refresh", logger.String("kid", kid))
		set, err = r.fetch(ctx)
		if err != nil {
			return nil, err
		}
		if k, ok := set.Key(kid); ok {
			return k, nil
		}
	}
	return nil, fmt.Errorf("%w: unknown key id %q", ErrUnauthenticated, kid)
}

// Invalidate descarta el set cacheado. El próximo Resolve vuelve al IdP.
func (r *KeyResolver) Invalidate() {
	r.mu.Lock()
	r.set = nil
	r.mu.Unlock()
}

func (r *KeyResolver) expired(fetchedAt time.Time) bool {
	return r.ttl > 0 && time.Since(fetchedAt) > r.ttl
}

func (r *KeyResolver) allowForcedRefresh() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastForced) < r.refreshMin {
		return false
	}
	r.lastForced = time.Now()
	return true
}

// fetch va al IdP vía singleflight: requests concurrentes comparten un
// único GET en vuelo.
func (r *KeyResolver) fetch(ctx context.Context) (*KeySet, error) {
	v, err, _ := r.sf.Do("jwks", func() (any, error) {
		set, err := r.download(ctx)
		if err != nil {
			metrics.JWKSFetchesTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		metrics.JWKSFetchesTotal.WithLabelValues("ok").Inc()
		r.mu.Lock()
		r.set = set
		r.fetchedAt = time.Now()
		r.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*KeySet), nil
}

func (r *KeyResolver) download(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.certsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrAuthUnavailable, err)
	}

	resp, err := r.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", ErrAuthUnavailable, r.certsURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", ErrAuthUnavailable, r.certsURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrAuthUnavailable, err)
	}

	var doc jwksDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: malformed jwks: %v", ErrAuthUnavailable, err)
	}

	set := &KeySet{byKID: make(map[string]*rsa.PublicKey)}
	for _, k := range doc.Keys {
		if k.Use != "sig" || k.Kty != "RSA" {
			continue
		}
		pub, err := publicKeyFromDescriptor(k)
		if err != nil {
			logger.L().Warn("skipping unusable jwks key",
				logger.String("kid", k.Kid), logger.Err(err))
			continue
		}
		set.byKID[k.Kid] = pub
		if set.first == nil {
			set.first = pub
		}
	}
	if set.first == nil {
		return nil, fmt.Errorf("%w: no RSA signing key in jwks", ErrAuthUnavailable)
	}
	return set, nil
}

// publicKeyFromDescriptor materializa la clave pública: preferimos la
// cadena de certificados (x5c), con fallback a modulus/exponent (n/e).
func publicKeyFromDescriptor(k jwkDescriptor) (*rsa.PublicKey, error) {
	if len(k.X5c) > 0 {
		// El primer cert de la cadena es el de firma.
		der, err := base64.StdEncoding.DecodeString(k.X5c[0])
		if err != nil {
			return nil, fmt.Errorf("x5c base64: %w", err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("x5c cert: %w", err)
		}
		pub, ok := cert.PublicKey.(*rsa.PublicKey)
		if !ok {
			return nil, fmt.Errorf("x5c cert is not RSA")
		}
		return pub, nil
	}

	if k.N != "" && k.E != "" {
		nb, err := base64.RawURLEncoding.DecodeString(k.N)
		if err != nil {
			return nil, fmt.Errorf("modulus: %w", err)
		}
		eb, err := base64.RawURLEncoding.DecodeString(k.E)
		if err != nil {
			return nil, fmt.Errorf("exponent: %w", err)
		}
		// pad a 8 bytes para decodificar el exponente como uint64
		buf := make([]byte, 8)
		copy(buf[8-len(eb):], eb)
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(nb),
			E: int(binary.BigEndian.Uint64(buf)),
		}, nil
	}

	return nil, fmt.Errorf("descriptor has neither x5c nor n/e")
}
