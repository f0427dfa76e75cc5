// Package pod implements the write-through and hydration HTTP client to a
// user's Solid pod: URL derivation from their WebID, RDF/Turtle
// serialization of writes, container bootstrap, and container listing for
// hydration. Built in the shape of the teacher's
// internal/notification.webhookSender — an explicit *http.Client with a
// fixed timeout, http.NewRequestWithContext, and status-code branching that
// logs failures rather than propagating them — generalized from a single
// outbound POST to the full LDP verb set this domain needs.
package pod

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/weare-health/fhir-session-gateway/internal/fhir"
	"github.com/weare-health/fhir-session-gateway/internal/rdf"
)

// Client talks to users' Solid pods over HTTP. The zero value is not
// usable — create instances with New.
type Client struct {
	http          *http.Client
	containerPath string // welldata.solid.fhir-container-path, e.g. "/weare/fhir"
	disabled      bool
	logger        *zap.Logger
}

// Config configures a Client.
type Config struct {
	Timeout       time.Duration
	ContainerPath string // default "/weare/fhir" if empty
	Disabled      bool   // welldata.solid.enabled = false
}

// New creates a pod Client. When cfg.Disabled is true, every method is a
// no-op that returns immediately — matching §4.5's "disabled mode" and the
// teacher's WebhookConfig.Enabled short-circuit.
func New(cfg Config, logger *zap.Logger) *Client {
	path := cfg.ContainerPath
	if path == "" {
		path = "/weare/fhir"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		http:          &http.Client{Timeout: timeout},
		containerPath: path,
		disabled:      cfg.Disabled,
		logger:        logger.Named("pod"),
	}
}

// Enabled reports whether this client performs real pod I/O. A nil *Client
// reports false.
func (c *Client) Enabled() bool { return c != nil && !c.disabled }

// baseURL derives the pod base ("scheme://host[:port]") from a WebID
// subject of the shape "https://host[:port]/…#me", per §4.5.
func baseURL(webID string) (string, error) {
	u, err := url.Parse(webID)
	if err != nil {
		return "", fmt.Errorf("pod: parsing WebID %q: %w", webID, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("pod: WebID %q is not an absolute URL", webID)
	}
	return u.Scheme + "://" + u.Host, nil
}

// ResourceURL builds the pod URL for one resource: {base}{containerPath}/{type}/{id}.ttl
func (c *Client) ResourceURL(webID string, rtype fhir.ResourceType, id string) (string, error) {
	base, err := baseURL(webID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s/%s/%s.ttl", base, c.containerPath, rtype, id), nil
}

// ContainerURL builds the pod container URL for a resource type:
// {base}{containerPath}/{type}/
func (c *Client) ContainerURL(webID string, rtype fhir.ResourceType) (string, error) {
	base, err := baseURL(webID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%s/%s/", base, c.containerPath, rtype), nil
}

// Put serializes r to Turtle and PUTs it to the pod. Before sending, the
// serialized form is parsed back locally — a self-parse failure is a
// serialization bug in this gateway, not a remote failure, and is returned
// as ErrSerialization (a hard error, unlike every other failure path in
// this client). A non-2xx response or transport error is logged and
// returned wrapped in ErrSendFailed; the caller (the generic provider)
// does not propagate it to the API client.
func (c *Client) Put(ctx context.Context, webID, token string, rtype fhir.ResourceType, r fhir.Resource) error {
	if c.disabled {
		return nil
	}

	target, err := c.ResourceURL(webID, rtype, r.ResourceID())
	if err != nil {
		return err
	}

	graph := toGraph(target, r)
	body := rdf.Encode(graph)

	if _, err := rdf.Parse(body); err != nil {
		return fmt.Errorf("%w: %s", ErrSerialization, err)
	}

	if err := c.ensureContainer(ctx, webID, token, rtype); err != nil {
		c.logger.Warn("container bootstrap failed", zap.String("url", target), zap.Error(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: building request: %s", ErrSendFailed, err)
	}
	req.Header.Set("Content-Type", "text/turtle")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("pod write failed", zap.String("url", target), zap.Error(err))
		return fmt.Errorf("%w: %s", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("pod write rejected", zap.String("url", target), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("%w: pod returned status %d", ErrSendFailed, resp.StatusCode)
	}
	return nil
}

// Delete issues a DELETE for the resource's pod URL. 2xx or 404 is treated
// as success (idempotent delete); any other status is logged and returned
// wrapped in ErrSendFailed.
func (c *Client) Delete(ctx context.Context, webID, token string, rtype fhir.ResourceType, id string) error {
	if c.disabled {
		return nil
	}

	target, err := c.ResourceURL(webID, rtype, id)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, target, nil)
	if err != nil {
		return fmt.Errorf("%w: building request: %s", ErrSendFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("pod delete failed", zap.String("url", target), zap.Error(err))
		return fmt.Errorf("%w: %s", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || (resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil
	}

	c.logger.Error("pod delete rejected", zap.String("url", target), zap.Int("status", resp.StatusCode))
	return fmt.Errorf("%w: pod returned status %d", ErrSendFailed, resp.StatusCode)
}

// List fetches the container for rtype, extracts every ldp:contains member
// URI ending in ".ttl", and GETs + parses each one. A 404 on the container
// means "no resources of this type yet" and returns (nil, nil), not an
// error.
func (c *Client) List(ctx context.Context, webID, token string, rtype fhir.ResourceType) ([]fhir.Resource, error) {
	if c.disabled {
		return nil, nil
	}

	containerURL, err := c.ContainerURL(webID, rtype)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, containerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %s", ErrSendFailed, err)
	}
	req.Header.Set("Accept", "text/turtle")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSendFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: container list returned status %d", ErrSendFailed, resp.StatusCode)
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("%w: reading container body: %s", ErrSendFailed, err)
	}

	graph, err := rdf.Parse(body.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: parsing container body: %s", ErrSendFailed, err)
	}

	members := graph.Objects(containerURL, rdf.LDPContains)
	resources := make([]fhir.Resource, 0, len(members))
	for _, member := range members {
		if !strings.HasSuffix(member, ".ttl") {
			continue
		}
		r, err := c.fetchOne(ctx, token, member, rtype)
		if err != nil {
			c.logger.Warn("skipping unreadable pod member", zap.String("url", member), zap.Error(err))
			continue
		}
		resources = append(resources, r)
	}
	return resources, nil
}

func (c *Client) fetchOne(ctx context.Context, token, target string, rtype fhir.ResourceType) (fhir.Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/turtle")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var body bytes.Buffer
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	graph, err := rdf.Parse(body.Bytes())
	if err != nil {
		return nil, err
	}
	return fromGraph(rtype, target, graph)
}

// ensureContainer HEADs the container URL and, on 404, PUTs an empty
// container document advertising the ldp:BasicContainer type via the Link
// header, per §4.5's container bootstrap contract. Also ensures the parent
// "/weare/" and "/weare/fhir/" containers exist.
func (c *Client) ensureContainer(ctx context.Context, webID, token string, rtype fhir.ResourceType) error {
	base, err := baseURL(webID)
	if err != nil {
		return err
	}

	parents := []string{
		base + "/weare/",
		base + "/weare" + strings.TrimPrefix(c.containerPath, "/weare") + "/",
	}
	containerURL, err := c.ContainerURL(webID, rtype)
	if err != nil {
		return err
	}

	for _, target := range append(parents, containerURL) {
		if err := c.ensureOne(ctx, token, target); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) ensureOne(ctx context.Context, token, target string) error {
	head, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return err
	}
	head.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(head)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrContainerMissing, err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		return nil
	}

	put, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(nil))
	if err != nil {
		return err
	}
	put.Header.Set("Authorization", "Bearer "+token)
	put.Header.Set("Link", "<"+rdf.LDPBasicContainerType+`>; rel="type"`)

	putResp, err := c.http.Do(put)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrContainerMissing, err)
	}
	defer putResp.Body.Close()

	if putResp.StatusCode < 200 || putResp.StatusCode >= 300 {
		return fmt.Errorf("%w: container bootstrap returned status %d", ErrContainerMissing, putResp.StatusCode)
	}
	return nil
}
