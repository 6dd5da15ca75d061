// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

const eventTableSchema = `CREATE TABLE IF NOT EXISTS event (
	opSeq INTEGER NOT NULL,
	eventIndex INTEGER NOT NULL,
	opName TEXT NOT NULL,
	caller BLOB(20) NOT NULL,
	time INTEGER NOT NULL,
	address BLOB(20) NOT NULL,
	name TEXT NOT NULL,
	data BLOB,
	PRIMARY KEY (opSeq, eventIndex)
);

CREATE INDEX IF NOT EXISTS event_i0 ON event(address, name);
CREATE INDEX IF NOT EXISTS event_i1 ON event(time);
`
