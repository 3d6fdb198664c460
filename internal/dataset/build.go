package dataset

// The Add methods assemble a snapshot row by row, preserving arrival order.

func (s *Snapshot) AddStage(month string, country Country, stage FunnelStage) {
	if s.Funnels == nil {
		s.Funnels = FunnelTable{}
	}
	if s.Funnels[month] == nil {
		s.Funnels[month] = map[Country][]FunnelStage{}
	}
	s.Funnels[month][country] = append(s.Funnels[month][country], stage)
}

func (s *Snapshot) AddErrorCode(key Key, rec ErrorCodeRecord) {
	if s.ErrorCodeTable == nil {
		s.ErrorCodeTable = ErrorCodeTable{}
	}
	byCountry := s.ErrorCodeTable[key.Month]
	if byCountry == nil {
		byCountry = map[Country]map[TxnType][]ErrorCodeRecord{}
		s.ErrorCodeTable[key.Month] = byCountry
	}
	if byCountry[key.Country] == nil {
		byCountry[key.Country] = map[TxnType][]ErrorCodeRecord{}
	}
	byCountry[key.Country][key.TxnType] = append(byCountry[key.Country][key.TxnType], rec)
}

func (s *Snapshot) AddFailureReason(key Key, rec FailureReasonRecord) {
	if s.FailureReasonTable == nil {
		s.FailureReasonTable = FailureReasonTable{}
	}
	byCountry := s.FailureReasonTable[key.Month]
	if byCountry == nil {
		byCountry = map[Country]map[TxnType][]FailureReasonRecord{}
		s.FailureReasonTable[key.Month] = byCountry
	}
	if byCountry[key.Country] == nil {
		byCountry[key.Country] = map[TxnType][]FailureReasonRecord{}
	}
	byCountry[key.Country][key.TxnType] = append(byCountry[key.Country][key.TxnType], rec)
}

func (s *Snapshot) AddLoginPageURL(key Key, bucket string, rec LoginPageURLRecord) {
	if s.LoginPageURLTable == nil {
		s.LoginPageURLTable = LoginPageURLTable{}
	}
	byCountry := s.LoginPageURLTable[key.Month]
	if byCountry == nil {
		byCountry = map[Country]map[string][]LoginPageURLRecord{}
		s.LoginPageURLTable[key.Month] = byCountry
	}
	if byCountry[key.Country] == nil {
		byCountry[key.Country] = map[string][]LoginPageURLRecord{}
	}
	byCountry[key.Country][bucket] = append(byCountry[key.Country][bucket], rec)
}
