// Package validation checks cluster requests locally, before any request is
// sent. Every failure is an *errors.APIError of kind validation.
package validation

import (
	"context"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mcuadros/go-defaults"
	"k8s.io/client-go/tools/clientcmd"
	certutil "k8s.io/client-go/util/cert"
	"k8s.io/client-go/util/keyutil"

	insighterrors "github.com/kubeadapt/resource-insight/internal/errors"
	"github.com/kubeadapt/resource-insight/pkg/model"
)

// Validator wraps a configured go-playground validator.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator that names fields by their JSON key.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// CreateRequest fills defaults into req and checks it, including the
// credential required by its auth type.
func (val *Validator) CreateRequest(ctx context.Context, component string, req *model.CreateClusterRequest) error {
	defaults.SetDefaults(req)
	req.Name = strings.TrimSpace(req.Name)
	req.APIServer = strings.TrimSpace(req.APIServer)

	if err := val.v.StructCtx(ctx, req); err != nil {
		return insighterrors.Validation(component, describe(err))
	}
	if err := Credentials(req.AuthType, req.AuthConfig); err != nil {
		return insighterrors.Validation(component, err.Error())
	}
	return nil
}

// UpdateRequest checks the fields present in a partial update.
func (val *Validator) UpdateRequest(component string, req *model.UpdateClusterRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return insighterrors.Validation(component, "cluster_name is required")
	}
	if req.APIServer != nil {
		if err := val.v.Var(*req.APIServer, "required,url"); err != nil {
			return insighterrors.Validation(component, "api_server must be a valid URL")
		}
	}
	if req.CollectInterval != nil {
		if err := val.v.Var(*req.CollectInterval, "gte=1,lte=1440"); err != nil {
			return insighterrors.Validation(component, "collect_interval must be between 1 and 1440")
		}
	}
	if req.AuthType != nil {
		if err := val.v.Var(string(*req.AuthType), "oneof=token cert kubeconfig"); err != nil {
			return insighterrors.Validation(component, "auth_type must be one of token cert kubeconfig")
		}
		// Switching auth type without new credentials leaves the server
		// holding a config for the old type.
		if req.AuthConfig == nil {
			return insighterrors.Validation(component, "auth_config is required when auth_type changes")
		}
		if err := Credentials(*req.AuthType, *req.AuthConfig); err != nil {
			return insighterrors.Validation(component, err.Error())
		}
	}
	return nil
}

// Credentials checks that cfg carries a usable credential for authType.
// Kubeconfigs must parse and certificates must be PEM.
func Credentials(authType model.AuthType, cfg model.AuthConfig) error {
	switch authType {
	case model.AuthToken:
		if strings.TrimSpace(cfg.BearerToken) == "" {
			return stderrors.New("bearer_token is required for token auth")
		}
	case model.AuthCert:
		if strings.TrimSpace(cfg.ClientCert) == "" || strings.TrimSpace(cfg.ClientKey) == "" {
			return stderrors.New("client_cert and client_key are required for cert auth")
		}
		if _, err := certutil.ParseCertsPEM([]byte(cfg.ClientCert)); err != nil {
			return fmt.Errorf("client_cert is not a PEM certificate: %w", err)
		}
		if _, err := keyutil.ParsePrivateKeyPEM([]byte(cfg.ClientKey)); err != nil {
			return fmt.Errorf("client_key is not a PEM private key: %w", err)
		}
		if strings.TrimSpace(cfg.CACert) != "" {
			if _, err := certutil.ParseCertsPEM([]byte(cfg.CACert)); err != nil {
				return fmt.Errorf("ca_cert is not a PEM certificate: %w", err)
			}
		}
	case model.AuthKubeconfig:
		if strings.TrimSpace(cfg.Kubeconfig) == "" {
			return stderrors.New("kubeconfig is required for kubeconfig auth")
		}
		kc, err := clientcmd.Load([]byte(cfg.Kubeconfig))
		if err != nil {
			return fmt.Errorf("kubeconfig does not parse: %w", err)
		}
		if len(kc.Clusters) == 0 {
			return stderrors.New("kubeconfig defines no clusters")
		}
	default:
		return fmt.Errorf("unsupported auth_type %q", authType)
	}
	return nil
}

// describe turns the first field error into a sentence.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "url":
		return field + " must be a valid URL"
	case "oneof":
		return field + " must be one of " + fe.Param()
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gte", "lte":
		return field + " must be between 1 and 1440"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
