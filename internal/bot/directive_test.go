package bot

import (
	"testing"

	"flydealsbot/internal/dialog"
)

func TestDecodeMessage(t *testing.T) {
	cases := []struct {
		in   string
		want Directive
	}{
		{"/start", Directive{Kind: KindHelp}},
		{"/help", Directive{Kind: KindHelp}},
		{"/HELP", Directive{Kind: KindHelp}},
		{"/deals", Directive{Kind: KindBrowseDeals, Page: 1}},
		{"/deals@flydealsbot", Directive{Kind: KindBrowseDeals, Page: 1}},
		{"/search", Directive{Kind: KindStartSearch}},
		{"/alert", Directive{Kind: KindStartAlert}},
		{"/alerts", Directive{Kind: KindStartAlert}},
		{"/destinations", Directive{Kind: KindDestinations}},
		{"/subscribe", Directive{Kind: KindSubscribe}},
		{"/unsubscribe", Directive{Kind: KindUnsubscribe}},
		{"/skip", Directive{Kind: KindSkip}},
		{"/cancel", Directive{Kind: KindCancel}},
		{"/frobnicate", Directive{Kind: KindUnknown}},
		{"rome weekend", Directive{Kind: KindText, Text: "rome weekend"}},
		{"  250  ", Directive{Kind: KindText, Text: "250"}},
	}
	for _, tc := range cases {
		if got := DecodeMessage(tc.in); got != tc.want {
			t.Errorf("DecodeMessage(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestDecodeCallback(t *testing.T) {
	cases := []struct {
		in   string
		want Directive
	}{
		{"noop", Directive{Kind: KindNoop}},
		{"cmd:deals", Directive{Kind: KindBrowseDeals, Page: 1}},
		{"cmd:search", Directive{Kind: KindStartSearch}},
		{"cmd:subscribe", Directive{Kind: KindToggleSubscription}},
		{"search:mode:text", Directive{Kind: KindChooseMode, Mode: dialog.ModeText}},
		{"search:mode:route", Directive{Kind: KindChooseMode, Mode: dialog.ModeRoute}},
		{"search:mode:price", Directive{Kind: KindChooseMode, Mode: dialog.ModePrice}},
		{"search:page:3", Directive{Kind: KindSearchPage, Page: 3}},
		{"search:page:0", Directive{Kind: KindUnknown}},
		{"search:page:x", Directive{Kind: KindUnknown}},
		{"alert:action:create", Directive{Kind: KindChooseAction, Action: dialog.ActionCreate}},
		{"alert:action:list", Directive{Kind: KindChooseAction, Action: dialog.ActionList}},
		{"alert:delete:42", Directive{Kind: KindDeleteAlert, AlertID: 42}},
		{"alert:delete:-1", Directive{Kind: KindUnknown}},
		{"confirm:yes", Directive{Kind: KindConfirm, Yes: true}},
		{"confirm:no", Directive{Kind: KindConfirm, Yes: false}},
		{"confirm:maybe", Directive{Kind: KindUnknown}},
		{"deals:page:2", Directive{Kind: KindBrowseDeals, Page: 2}},
		{"deal:view:rome-weekend", Directive{Kind: KindViewDeal, Slug: "rome-weekend"}},
		{"deal:view:odd:slug:parts", Directive{Kind: KindViewDeal, Slug: "odd:slug:parts"}},
		{"dest:view:Rome", Directive{Kind: KindDestDeals, City: "Rome", Page: 1}},
		{"dest:Rome:page:2", Directive{Kind: KindDestDeals, City: "Rome", Page: 2}},
		{"dest:Name:With:Colons:page:3", Directive{Kind: KindDestDeals, City: "Name:With:Colons", Page: 3}},
		{"dest:Rome:page:0", Directive{Kind: KindUnknown}},
		{"garbage", Directive{Kind: KindUnknown}},
		{"", Directive{Kind: KindUnknown}},
	}
	for _, tc := range cases {
		if got := DecodeCallback(tc.in); got != tc.want {
			t.Errorf("DecodeCallback(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
