package mcp

import (
	"context"

	"refx/internal/buildgate"
	"refx/internal/cache"
	"refx/internal/errors"
)

// requireString extracts a mandatory string argument.
func requireString(params map[string]interface{}, key string) (string, error) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", errors.NewConfiguration(key, "required")
	}
	return v, nil
}

// stringParam extracts an optional string argument.
func stringParam(params map[string]interface{}, key string) string {
	v, _ := params[key].(string)
	return v
}

// stringSliceParam extracts an optional string array argument.
func stringSliceParam(params map[string]interface{}, key string) []string {
	raw, ok := params[key].([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// validateBuild runs pre-flight build validation, consulting the
// fingerprint-keyed cache first so repeated checks on an unchanged tree skip
// the external build.
func (s *Server) validateBuild(ctx context.Context, path string) (*buildgate.Result, error) {
	if s.gate == nil {
		return nil, errors.NewConfiguration("build", "no build runner configured")
	}

	fingerprint := ""
	if s.buildCache != nil {
		if files, err := s.analysis.SourceFiles(ctx, path); err == nil {
			if fp, err := cache.Fingerprint(files); err == nil {
				fingerprint = fp
				if res, ok, err := s.buildCache.Get(ctx, path, fp); err == nil && ok {
					s.logger.Debug("build cache hit", "path", path)
					return res, nil
				}
			}
		}
	}

	res, err := s.gate.Validate(ctx, path)
	if err != nil {
		return nil, err
	}
	if s.buildCache != nil && fingerprint != "" {
		if err := s.buildCache.Put(ctx, path, fingerprint, res); err != nil {
			s.logger.Warn("build cache write failed", "error", err)
		}
	}
	return res, nil
}

// guardBuild refuses workspace-mutating operations when the build fails.
func (s *Server) guardBuild(ctx context.Context, path string) error {
	if s.gate == nil {
		return nil
	}
	res, err := s.validateBuild(ctx, path)
	if err != nil {
		return err
	}
	if res.Status == buildgate.StatusFailure {
		return errors.NewBuildValidationFailed(res.ErrorCount, res.ErrorSummary)
	}
	return nil
}
