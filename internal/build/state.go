package build

import (
	"git.home.luguber.info/inful/tagindex/internal/config"
	"git.home.luguber.info/inful/tagindex/internal/docmodel"
	"git.home.luguber.info/inful/tagindex/internal/docs"
	"git.home.luguber.info/inful/tagindex/internal/linkverify"
	"git.home.luguber.info/inful/tagindex/internal/render"
	"git.home.luguber.info/inful/tagindex/internal/site"
	"git.home.luguber.info/inful/tagindex/internal/tags"
)

// PassState carries mutable state across the stages of one pass.
type PassState struct {
	Config *config.Config
	Report *PassReport

	// CheckoutPath is the git source checkout, empty without a git source.
	CheckoutPath string

	// SiteCfg is the effective site configuration for this pass. With a git
	// source the docs dir points inside the checkout.
	SiteCfg  site.Config
	Resolved site.Resolved

	Docs     []docmodel.DocumentMetadata
	Problems []docs.Problem
	Index    *tags.Index
	Pages    []render.Page
	Files    *site.Files

	LinkResult *linkverify.Result
}

// newPassState constructs a PassState.
func newPassState(cfg *config.Config, report *PassReport) *PassState {
	return &PassState{Config: cfg, Report: report}
}
